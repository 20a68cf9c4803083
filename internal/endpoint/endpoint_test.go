package endpoint

import (
	"errors"
	"testing"

	"github.com/nerrad567/local-api-gateway/internal/infrastructure/config"
)

func TestRegistry_IsEnabled(t *testing.T) {
	r := NewRegistry(Static{PlayerPosition: true, Mods: false})

	tests := []struct {
		name string
		want bool
	}{
		{PlayerPosition, true},
		{Mods, false},
		{Screen, false},
		{"pos", false},
	}
	for _, tt := range tests {
		if got := r.IsEnabled(tt.name); got != tt.want {
			t.Errorf("IsEnabled(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRegistry_Require(t *testing.T) {
	r := NewRegistry(Static{PlayerWorld: true})

	if err := r.Require(PlayerWorld); err != nil {
		t.Errorf("Require(enabled) error = %v", err)
	}

	err := r.Require(PlayerPosition)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Require(disabled) error = %v, want ErrDisabled", err)
	}
	var de *DisabledError
	if !errors.As(err, &de) || de.Names[0] != PlayerPosition {
		t.Errorf("DisabledError names = %v, want [%s]", de, PlayerPosition)
	}
	if got, want := err.Error(), "Endpoint player.position is disabled in the user's configuration"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRegistry_RequireAny(t *testing.T) {
	tests := []struct {
		name    string
		flags   Static
		wantErr bool
	}{
		{"both", Static{PlayerPosition: true, PlayerWorld: true}, false},
		{"position only", Static{PlayerPosition: true}, false},
		{"world only", Static{PlayerWorld: true}, false},
		{"neither", Static{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewRegistry(tt.flags).RequireAny(PlayerPosition, PlayerWorld)
			if (err != nil) != tt.wantErr {
				t.Errorf("RequireAny() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && err.Error() != "Endpoints player.position and player.world are disabled in the user's configuration" {
				t.Errorf("Error() = %q", err.Error())
			}
		})
	}
}

func TestRegistry_FollowsConfigReload(t *testing.T) {
	store := config.NewStore("", config.Default())
	r := NewRegistry(store)

	if !r.IsEnabled(Mods) {
		t.Fatal("mods should be enabled by default")
	}

	next := store.Current().Clone()
	next.Endpoints[Mods] = false
	if err := store.Replace(next); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	if r.IsEnabled(Mods) {
		t.Error("mods should be disabled after the config changed")
	}
}

func TestNames_MatchConfigDefaults(t *testing.T) {
	defaults := config.DefaultEndpoints()
	if len(defaults) != len(Names()) {
		t.Fatalf("config knows %d endpoints, registry knows %d", len(defaults), len(Names()))
	}
	for _, n := range Names() {
		if _, ok := defaults[n]; !ok {
			t.Errorf("endpoint %q has no default flag", n)
		}
	}
}

func TestAllEnabled(t *testing.T) {
	r := NewRegistry(AllEnabled())
	for _, n := range Names() {
		if !r.IsEnabled(n) {
			t.Errorf("%s should be enabled", n)
		}
	}
}
