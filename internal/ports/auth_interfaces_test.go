package ports_test

import (
	"testing"

	"github.com/ternsecure/tern-admin/internal/mocks"
	authmocks "github.com/ternsecure/tern-admin/internal/mocks/auth"
	"github.com/ternsecure/tern-admin/internal/ports"
)

// This test only verifies that our mocks conform to the ports at compile time.
func TestMocksImplementPorts(t *testing.T) {
	t.Helper()

	var _ ports.IdentityProvider = (*mocks.MockIdentityProvider)(nil)
	var _ ports.PasswordAuthenticator = (*mocks.MockPasswordAuthenticator)(nil)
	var _ ports.AuditLog = (*mocks.MockAuditLog)(nil)
	var _ ports.FederatedProvider = (*authmocks.MockFederatedProvider)(nil)
	var _ ports.KeyValueStore = (*authmocks.MemoryKVStore)(nil)
	var _ ports.CookieJar = (*authmocks.MemoryCookieJar)(nil)
	var _ ports.ViewCache = (*authmocks.MemoryViewCache)(nil)
}
