package services

import (
	"testing"

	"github.com/lborres/docauth/core"
)

// Requirement: BaseEndpoints returns framework-agnostic endpoint specifications
// with the expected paths, methods, operation IDs and protection.
func TestBaseEndpoints(t *testing.T) {
	tests := []struct {
		name          string
		wantPath      string
		wantMethod    string
		wantOpID      string
		wantProtected bool
	}{
		{name: "session", wantPath: "/session", wantMethod: "GET", wantOpID: OpGetSession, wantProtected: true},
		{name: "sign-out", wantPath: "/sign-out", wantMethod: "POST", wantOpID: OpSignOut, wantProtected: true},
		{name: "request verification", wantPath: "/verification", wantMethod: "POST", wantOpID: OpRequestVerification},
		{name: "consume verification", wantPath: "/verification/consume", wantMethod: "POST", wantOpID: OpConsumeVerification},
		{name: "consume verification link", wantPath: "/verification/consume", wantMethod: "GET", wantOpID: OpConsumeVerification},
	}

	// Arrange
	endpoints := BaseEndpoints()
	if len(endpoints) != len(tests) {
		t.Fatalf("BaseEndpoints should return %d endpoints, got %d", len(tests), len(endpoints))
	}

	byRoute := make(map[string]core.Endpoint, len(endpoints))
	for _, ep := range endpoints {
		byRoute[ep.Method+" "+ep.Path] = ep
	}

	// Act & Assert
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			ep, found := byRoute[test.wantMethod+" "+test.wantPath]
			if !found {
				t.Fatalf("BaseEndpoints should include %s %s", test.wantMethod, test.wantPath)
			}
			if ep.Metadata.OperationID != test.wantOpID {
				t.Errorf("endpoint %q OperationID = %q, want %q", test.wantPath, ep.Metadata.OperationID, test.wantOpID)
			}
			if ep.Protected != test.wantProtected {
				t.Errorf("endpoint %q Protected = %v, want %v", test.wantPath, ep.Protected, test.wantProtected)
			}
			if ep.Metadata.Description == "" {
				t.Errorf("endpoint %q has no description", test.wantPath)
			}
		})
	}
}

// Requirement: no two base endpoints share a METHOD:PATH.
func TestBaseEndpoints_RoutesAreUnique(t *testing.T) {
	routes := make(map[string]bool)
	for _, ep := range BaseEndpoints() {
		key := ep.Method + " " + ep.Path
		if routes[key] {
			t.Errorf("BaseEndpoints contains duplicate route: %s", key)
		}
		routes[key] = true
	}
}

// Requirement: EndpointRegistry registers all base endpoints on creation,
// returned in a stable order.
func TestEndpointRegistry_RegistersBaseEndpoints(t *testing.T) {
	// Arrange & Act
	registry := NewEndpointRegistry()

	// Assert
	endpoints := registry.Endpoints()
	want := []string{
		"GET /session",
		"POST /sign-out",
		"POST /verification",
		"GET /verification/consume",
		"POST /verification/consume",
	}

	if len(endpoints) != len(want) {
		t.Fatalf("Endpoints() returned %d endpoints, want %d", len(endpoints), len(want))
	}
	for i, ep := range endpoints {
		if got := ep.Method + " " + ep.Path; got != want[i] {
			t.Errorf("Endpoints()[%d] = %q, want %q", i, got, want[i])
		}
	}
}

// Requirement: EndpointRegistry rejects duplicate METHOD:PATH combinations
// and registers nothing from a conflicting batch.
func TestEndpointRegistry_Register(t *testing.T) {
	tests := []struct {
		name      string
		endpoints []core.Endpoint
		wantErr   bool
		wantCount int
	}{
		{
			name:      "rejects duplicate GET /session",
			endpoints: []core.Endpoint{{Path: "/session", Method: "GET"}},
			wantErr:   true,
			wantCount: 5,
		},
		{
			name:      "allows same path different method",
			endpoints: []core.Endpoint{{Path: "/session", Method: "DELETE"}},
			wantCount: 6,
		},
		{
			name: "rejects duplicates within a batch",
			endpoints: []core.Endpoint{
				{Path: "/custom", Method: "GET"},
				{Path: "/custom", Method: "GET"},
			},
			wantErr:   true,
			wantCount: 5,
		},
		{
			name: "registers a clean batch",
			endpoints: []core.Endpoint{
				{Path: "/custom", Method: "GET"},
				{Path: "/custom", Method: "POST"},
			},
			wantCount: 7,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			registry := NewEndpointRegistry()

			// Act
			err := registry.Register(test.endpoints)

			// Assert
			if (err != nil) != test.wantErr {
				t.Fatalf("Register() error = %v, wantErr %v", err, test.wantErr)
			}
			if got := len(registry.Endpoints()); got != test.wantCount {
				t.Errorf("len(Endpoints()) = %d, want %d", got, test.wantCount)
			}
		})
	}
}
