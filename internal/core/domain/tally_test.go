package domain_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/samirrijal/relief/internal/core/domain"
)

func sampleSet() []domain.ElevationSample {
	c := domain.Coordinate{Lat: -43.1, Lon: -73.6}
	return []domain.ElevationSample{
		domain.Sampled(c, 10),
		domain.Sampled(c, 99.9),
		domain.Sampled(c, 100),
		domain.Sampled(c, 399),
		domain.Sampled(c, 401),
		domain.Sampled(c, 1200),
		domain.Failed(c, domain.ErrLookupFailure),
		domain.Sampled(c, -3),
	}
}

func TestAreaTally_OrderIndependent(t *testing.T) {
	samples := sampleSet()

	var want domain.AreaTally
	for _, s := range samples {
		want.Accumulate(s, 10)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.ElevationSample(nil), samples...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		var got domain.AreaTally
		for _, s := range shuffled {
			got.Accumulate(s, 10)
		}
		if got != want {
			t.Fatalf("permutation %d: got %+v, want %+v", i, got, want)
		}
	}

	if want.Total != 70 || want.Mountain != 20 || want.Hill != 20 || want.Plain != 30 {
		t.Errorf("unexpected tally %+v", want)
	}
}

func TestAreaTally_SkipsFailedSamples(t *testing.T) {
	tally := domain.AreaTally{Total: 3, Mountain: 1, Hill: 1, Plain: 1, Points: 3}
	before := tally

	tally.Accumulate(domain.Failed(domain.Coordinate{}, errors.New("boom")), 100)

	if tally.Total != before.Total || tally.Mountain != before.Mountain ||
		tally.Hill != before.Hill || tally.Plain != before.Plain || tally.Points != before.Points {
		t.Errorf("failed sample changed the tally: %+v", tally)
	}
	if tally.Failed != 1 {
		t.Errorf("expected failed=1, got %d", tally.Failed)
	}
}

func TestAreaTally_CategoriesSumToTotal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	var tally domain.AreaTally
	for i := 0; i < 500; i++ {
		e := rng.Float64()*1000 - 50
		tally.Accumulate(domain.Sampled(domain.Coordinate{}, e), 1)
		if sum := tally.Mountain + tally.Hill + tally.Plain; sum != tally.Total {
			t.Fatalf("after %d samples: categories sum to %v, total %v", i+1, sum, tally.Total)
		}
	}
}

func TestAreaTally_Merge(t *testing.T) {
	samples := sampleSet()
	var whole, left, right domain.AreaTally
	for i, s := range samples {
		whole.Accumulate(s, 1)
		if i%2 == 0 {
			left.Accumulate(s, 1)
		} else {
			right.Accumulate(s, 1)
		}
	}
	left.Merge(right)
	if left != whole {
		t.Errorf("merge: got %+v, want %+v", left, whole)
	}
}
