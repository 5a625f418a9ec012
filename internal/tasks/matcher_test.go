package tasks

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/ferrovax/playdex/internal/models"
	"github.com/ferrovax/playdex/internal/shared"
)

func TestIntersection_KnownMembership(t *testing.T) {
	e := newTestEngine(&mockCatalog{})
	e.Index().AddPlaylists([]models.Playlist{playlist("pl1", "Mix", "v1", "v3", "v5")})

	got, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2", "v3"}, nil)
	if err != nil {
		t.Fatalf("Intersection() error = %v", err)
	}
	if want := []string{"v1", "v3"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Intersection() = %v, want %v", got, want)
	}
}

func TestIntersection_CachesPerPlaylist(t *testing.T) {
	e := newTestEngine(&mockCatalog{})
	e.Index().AddPlaylists([]models.Playlist{playlist("pl1", "Mix", "v1")})

	if _, err := e.Intersection(context.Background(), "pl1", []string{"v1"}, nil); err != nil {
		t.Fatalf("Intersection() error = %v", err)
	}

	// The index grows, but the cached answer is served until invalidation.
	e.Index().Link("pl1", "v2", 0)
	got, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2"}, nil)
	if err != nil {
		t.Fatalf("Intersection() error = %v", err)
	}
	if want := []string{"v1"}; !reflect.DeepEqual(got, want) {
		t.Errorf("cached Intersection() = %v, want %v", got, want)
	}

	e.InvalidateMatches()
	got, err = e.Intersection(context.Background(), "pl1", []string{"v1", "v2"}, nil)
	if err != nil {
		t.Fatalf("Intersection() error = %v", err)
	}
	if want := []string{"v1", "v2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Intersection() after invalidation = %v, want %v", got, want)
	}
}

func TestIntersection_ReturnsCopies(t *testing.T) {
	e := newTestEngine(&mockCatalog{})
	e.Index().AddPlaylists([]models.Playlist{playlist("pl1", "Mix", "v1", "v2")})

	first, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2"}, nil)
	if err != nil {
		t.Fatalf("Intersection() error = %v", err)
	}
	first[0] = "mutated"

	second, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2"}, nil)
	if err != nil {
		t.Fatalf("Intersection() error = %v", err)
	}
	if want := []string{"v1", "v2"}; !reflect.DeepEqual(second, want) {
		t.Errorf("caller mutation leaked into the cache: got %v, want %v", second, want)
	}
}

func TestIntersection_ProbeFallback(t *testing.T) {
	t.Run("probes unknown videos when the local answer is empty", func(t *testing.T) {
		e := newTestEngine(&mockCatalog{})

		var probed []string
		probe := func(ctx context.Context, playlistID, videoID string) (bool, error) {
			probed = append(probed, videoID)
			return videoID == "v2", nil
		}

		got, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2", "v3"}, probe)
		if err != nil {
			t.Fatalf("Intersection() error = %v", err)
		}
		if want := []string{"v2"}; !reflect.DeepEqual(got, want) {
			t.Errorf("Intersection() = %v, want %v", got, want)
		}
		if len(probed) != 3 {
			t.Errorf("probed %v, want all three unknowns", probed)
		}
		if owner := e.Index().Owner("v2"); owner != "pl1" {
			t.Errorf("probe hit was not linked: Owner(v2) = %q, want pl1", owner)
		}
	})

	t.Run("honors the probe limit", func(t *testing.T) {
		e := NewEngine(EngineOpts{
			Catalog: &mockCatalog{},
			Logger:  shared.NewLogger(nil),
			Scan:    ScanOpts{ProbeLimit: 2},
		})

		calls := 0
		probe := func(ctx context.Context, playlistID, videoID string) (bool, error) {
			calls++
			return false, nil
		}

		if _, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2", "v3", "v4"}, probe); err != nil {
			t.Fatalf("Intersection() error = %v", err)
		}
		if calls != 2 {
			t.Errorf("probe calls = %d, want the limit of 2", calls)
		}
	})

	t.Run("skips probing when membership is complete", func(t *testing.T) {
		e := newTestEngine(&mockCatalog{})
		pl := playlist("pl1", "Mix", "v9")
		pl.VideoCount = 1 // the single known member is the whole playlist
		e.Index().AddPlaylists([]models.Playlist{pl})

		probe := func(ctx context.Context, playlistID, videoID string) (bool, error) {
			t.Error("probe invoked despite complete membership")
			return false, nil
		}

		got, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2"}, probe)
		if err != nil {
			t.Fatalf("Intersection() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Intersection() = %v, want empty (authoritative)", got)
		}
	})

	t.Run("degrades on probe errors", func(t *testing.T) {
		e := newTestEngine(&mockCatalog{})

		probe := func(ctx context.Context, playlistID, videoID string) (bool, error) {
			if videoID == "v1" {
				return false, errors.New("quota exceeded")
			}
			return videoID == "v2", nil
		}

		got, err := e.Intersection(context.Background(), "pl1", []string{"v1", "v2"}, probe)
		if err != nil {
			t.Fatalf("Intersection() error = %v, want nil (probe errors degrade)", err)
		}
		if want := []string{"v2"}; !reflect.DeepEqual(got, want) {
			t.Errorf("Intersection() = %v, want %v", got, want)
		}
	})

	t.Run("does not probe an empty result set", func(t *testing.T) {
		e := newTestEngine(&mockCatalog{})
		probe := func(ctx context.Context, playlistID, videoID string) (bool, error) {
			t.Error("probe invoked for an empty current set")
			return false, nil
		}
		got, err := e.Intersection(context.Background(), "pl1", nil, probe)
		if err != nil {
			t.Fatalf("Intersection() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("Intersection() = %v, want empty", got)
		}
	})
}
