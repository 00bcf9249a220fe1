package roadmap

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"careerpilot/internal/pipeline"
	"careerpilot/internal/store"
)

// fakeStore is an in-memory roadmap.Store counting tier lookups.
type fakeStore struct {
	roadmaps        map[string]*store.RoadmapRecord
	templates       map[string]*store.CareerTemplate
	saved           []*store.RoadmapRecord
	templateLookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roadmaps:  make(map[string]*store.RoadmapRecord),
		templates: make(map[string]*store.CareerTemplate),
	}
}

func (s *fakeStore) GetLatestRoadmap(career string) (*store.RoadmapRecord, error) {
	if rec, ok := s.roadmaps[career]; ok {
		return rec, nil
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) GetActiveTemplate(career string) (*store.CareerTemplate, error) {
	s.templateLookups++
	if t, ok := s.templates[career]; ok {
		return t, nil
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) SaveRoadmap(rec *store.RoadmapRecord) error {
	s.saved = append(s.saved, rec)
	s.roadmaps[rec.Career] = rec
	return nil
}

// fakeGenerator is a scripted Generator with a call counter.
type fakeGenerator struct {
	calls   int
	roadmap *Roadmap
	err     error
}

func (g *fakeGenerator) Generate(ctx context.Context, career, category string) (*Roadmap, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.roadmap, nil
}

func staticNormalize(valid bool, career, category, reason string) NormalizeFunc {
	return func(ctx context.Context, rawInput string) *NormalizeResult {
		return &NormalizeResult{Valid: valid, Career: career, Category: category, Confidence: 0.95, Reason: reason}
	}
}

func generatedRoadmap(t *testing.T) *Roadmap {
	t.Helper()
	var rm Roadmap
	require.NoError(t, json.Unmarshal([]byte(validRoadmapJSON), &rm))
	RepairOptional(&rm, rm.CareerName)
	return &rm
}

func TestResolverResolve(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid goal rejected before any tier", func(t *testing.T) {
		st := newFakeStore()
		gen := &fakeGenerator{}
		r := NewResolver(staticNormalize(false, "", "", "Not a career goal."), st, gen)

		_, err := r.Resolve(ctx, "earn lots of money")
		var perr *pipeline.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, pipeline.CodeInvalidCareerGoal, perr.Code)
		assert.Equal(t, "Not a career goal.", perr.Message)
		assert.Equal(t, 0, gen.calls)
		assert.Empty(t, st.saved)
	})

	t.Run("cache hit short-circuits generation", func(t *testing.T) {
		st := newFakeStore()
		rm := generatedRoadmap(t)
		payload, err := json.Marshal(rm)
		require.NoError(t, err)
		st.roadmaps["Software Engineer"] = &store.RoadmapRecord{
			ID: "abc", Career: "Software Engineer", Category: "Technology",
			Payload: payload, Source: SourceGenerated, Confidence: 0.85,
		}
		gen := &fakeGenerator{}
		r := NewResolver(staticNormalize(true, "Software Engineer", "Technology", ""), st, gen)

		res, err := r.Resolve(ctx, "software developer")
		require.NoError(t, err)
		assert.Equal(t, SourceCache, res.Source)
		assert.InDelta(t, 0.85, res.Confidence, 1e-9)
		assert.Equal(t, 0, gen.calls)
		// Cache hits are never re-persisted.
		assert.Empty(t, st.saved)
	})

	t.Run("identical goals resolve to identical payloads", func(t *testing.T) {
		st := newFakeStore()
		gen := &fakeGenerator{roadmap: generatedRoadmap(t)}
		r := NewResolver(staticNormalize(true, "Software Engineer", "Technology", ""), st, gen)

		first, err := r.Resolve(ctx, "software developer")
		require.NoError(t, err)
		second, err := r.Resolve(ctx, "software developer")
		require.NoError(t, err)

		assert.Equal(t, SourceGenerated, first.Source)
		assert.Equal(t, SourceCache, second.Source)
		assert.Equal(t, 1, gen.calls)

		p1, err := json.Marshal(first.Roadmap)
		require.NoError(t, err)
		p2, err := json.Marshal(second.Roadmap)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	})

	t.Run("template beats generation", func(t *testing.T) {
		st := newFakeStore()
		payload, err := json.Marshal(generatedRoadmap(t))
		require.NoError(t, err)
		st.templates["Software Engineer"] = &store.CareerTemplate{
			Career: "Software Engineer", Payload: payload, Version: 1, Active: true,
		}
		gen := &fakeGenerator{}
		r := NewResolver(staticNormalize(true, "Software Engineer", "Technology", ""), st, gen)

		res, err := r.Resolve(ctx, "software developer")
		require.NoError(t, err)
		assert.Equal(t, SourceTemplate, res.Source)
		assert.InDelta(t, 1.0, res.Confidence, 1e-9)
		assert.Equal(t, 0, gen.calls)
		// Template materialization is persisted for the cache tier.
		require.Len(t, st.saved, 1)
		assert.Equal(t, SourceTemplate, st.saved[0].Source)
	})

	t.Run("cache beats template", func(t *testing.T) {
		st := newFakeStore()
		payload, err := json.Marshal(generatedRoadmap(t))
		require.NoError(t, err)
		st.roadmaps["Software Engineer"] = &store.RoadmapRecord{
			Career: "Software Engineer", Payload: payload, Source: SourceGenerated, Confidence: 0.85,
		}
		st.templates["Software Engineer"] = &store.CareerTemplate{
			Career: "Software Engineer", Payload: payload, Version: 1, Active: true,
		}
		gen := &fakeGenerator{}
		r := NewResolver(staticNormalize(true, "Software Engineer", "Technology", ""), st, gen)

		res, err := r.Resolve(ctx, "software developer")
		require.NoError(t, err)
		assert.Equal(t, SourceCache, res.Source)
		// A cache hit never consults the lower tiers.
		assert.Equal(t, 0, st.templateLookups)
		assert.Equal(t, 0, gen.calls)
	})

	t.Run("generation tier persists with default confidence", func(t *testing.T) {
		st := newFakeStore()
		gen := &fakeGenerator{roadmap: generatedRoadmap(t)}
		r := NewResolver(staticNormalize(true, "Software Engineer", "Technology", ""), st, gen)

		res, err := r.Resolve(ctx, "software developer")
		require.NoError(t, err)
		assert.Equal(t, SourceGenerated, res.Source)
		assert.InDelta(t, 0.85, res.Confidence, 1e-9)
		require.Len(t, st.saved, 1)
		assert.Equal(t, "software developer", st.saved[0].GoalInput)
		assert.Equal(t, "Software Engineer", st.saved[0].Career)
	})

	t.Run("generator failure propagates and persists nothing", func(t *testing.T) {
		st := newFakeStore()
		gen := &fakeGenerator{err: pipeline.Errorf(pipeline.CodeTimeout, "Roadmap generation took too long. Please try again.")}
		r := NewResolver(staticNormalize(true, "Software Engineer", "Technology", ""), st, gen)

		_, err := r.Resolve(ctx, "software developer")
		var perr *pipeline.Error
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, pipeline.CodeTimeout, perr.Code)
		assert.Empty(t, st.saved)
	})
}
