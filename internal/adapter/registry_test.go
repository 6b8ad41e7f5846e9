package adapter

import (
	"testing"

	"github.com/alanyoungcy/nftagg/internal/domain"
)

func TestDefaultRegistryCoversAllKinds(t *testing.T) {
	r := NewDefaultRegistry(MainnetAddresses(), nil)

	for _, kind := range domain.AllKinds {
		a, err := r.Get(kind)
		if err != nil {
			t.Errorf("kind %s not registered: %v", kind, err)
			continue
		}
		if a.Kind() != kind {
			t.Errorf("adapter for %s reports kind %s", kind, a.Kind())
		}
	}
	if got := len(r.Kinds()); got != len(domain.AllKinds) {
		t.Errorf("expected %d kinds, got %d", len(domain.AllKinds), got)
	}
}

func TestGetUnknownKind(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("no-such-protocol"); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}

func TestTraitAssignments(t *testing.T) {
	r := NewDefaultRegistry(MainnetAddresses(), nil)

	singleOnly := map[domain.OrderKind]bool{
		domain.KindManifold:    true,
		domain.KindSuperRare:   true,
		domain.KindCryptoPunks: true,
	}

	for _, kind := range domain.AllKinds {
		a, err := r.Get(kind)
		if err != nil {
			t.Fatalf("get %s: %v", kind, err)
		}
		traits := a.Traits()

		if traits.SingleOrderOnly != singleOnly[kind] {
			t.Errorf("%s: SingleOrderOnly=%v, expected %v", kind, traits.SingleOrderOnly, singleOnly[kind])
		}
		if traits.ExternalCallData != (kind == domain.KindBlur) {
			t.Errorf("%s: unexpected ExternalCallData=%v", kind, traits.ExternalCallData)
		}
		if traits.OffchainSignature != (kind == domain.KindX2Y2) {
			t.Errorf("%s: unexpected OffchainSignature=%v", kind, traits.OffchainSignature)
		}
		// A protocol cannot both require external call data and batch.
		if traits.ExternalCallData && traits.BatchFills {
			t.Errorf("%s: ExternalCallData with BatchFills", kind)
		}
	}
}
