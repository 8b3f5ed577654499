package threadsvc_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apiarian/village/internal/domain"
	"github.com/apiarian/village/internal/svc/threadsvc"
)

//nolint:gochecknoglobals
var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func post(id domain.PostID, minute int, parents ...domain.PostID) *domain.Post {
	if parents == nil {
		parents = []domain.PostID{}
	}

	return &domain.Post{
		ID:        id,
		Author:    "alice",
		Timestamp: epoch.Add(time.Duration(minute) * time.Minute),
		Title:     "post " + string(id),
		Context:   parents,
	}
}

func ids(posts []*domain.Post) []domain.PostID {
	out := make([]domain.PostID, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.ID)
	}

	return out
}

// a <- b <- c <- d, with d also replying to a.
func diamond() []*domain.Post {
	return []*domain.Post{
		post("a", 0),
		post("b", 1, "a"),
		post("c", 2, "b"),
		post("d", 3, "c", "a"),
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		posts []*domain.Post
		root  domain.PostID
		want  []domain.PostID
	}{
		{
			name:  "chain with shortcut",
			posts: diamond(),
			root:  "a",
			want:  []domain.PostID{"a", "b", "d", "c"},
		},
		{
			name:  "subthread",
			posts: diamond(),
			root:  "b",
			want:  []domain.PostID{"b", "c", "d"},
		},
		{
			name: "linear chain",
			posts: []*domain.Post{
				post("a", 0),
				post("b", 1, "a"),
				post("c", 2, "b"),
				post("d", 3, "c"),
			},
			root: "a",
			want: []domain.PostID{"a", "b", "c", "d"},
		},
		{
			name: "siblings ordered by timestamp",
			posts: []*domain.Post{
				post("late", 9, "root"),
				post("root", 0),
				post("early", 1, "root"),
				post("tie2", 5, "root"),
				post("tie1", 5, "root"),
			},
			root: "root",
			want: []domain.PostID{"root", "early", "tie2", "tie1", "late"},
		},
		{
			name: "unknown context entries ignored",
			posts: []*domain.Post{
				post("a", 0),
				post("b", 1, "a", "ghost"),
			},
			root: "a",
			want: []domain.PostID{"a", "b"},
		},
		{
			name:  "leaf",
			posts: diamond(),
			root:  "d",
			want:  []domain.PostID{"d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			thread, err := threadsvc.NewGraph(tt.posts).Expand(tt.root)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(thread))
		})
	}
}

func TestReplyDAG(t *testing.T) {
	t.Parallel()

	graph := threadsvc.NewGraph([]*domain.Post{
		post("D", 3, "B", "C"),
		post("C", 2, "A"),
		post("B", 1, "A"),
		post("A", 0),
	})

	thread, err := graph.Expand("A")
	require.NoError(t, err)
	assert.Equal(t, []domain.PostID{"A", "B", "C", "D"}, ids(thread))
	assert.Equal(t, []domain.PostID{"D"}, graph.Tail())
}

func TestExpandParentsFirst(t *testing.T) {
	t.Parallel()

	thread, err := threadsvc.NewGraph([]*domain.Post{
		post("a", 0),
		post("b", 1, "a"),
		post("c", 2, "b"),
		post("d", 3, "c"),
	}).Expand("a")
	require.NoError(t, err)

	position := make(map[domain.PostID]int)
	for i, p := range thread {
		position[p.ID] = i
	}

	for _, p := range thread[1:] {
		found := false

		for _, parent := range p.Context {
			if idx, ok := position[parent]; ok && idx < position[p.ID] {
				found = true
			}
		}

		assert.True(t, found, "post %s precedes all of its parents", p.ID)
	}
}

func TestExpandMissingRoot(t *testing.T) {
	t.Parallel()

	_, err := threadsvc.NewGraph(diamond()).Expand("missing")
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpandCycle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		posts []*domain.Post
		root  domain.PostID
	}{
		{
			name:  "self reference",
			posts: []*domain.Post{post("a", 0, "a")},
			root:  "a",
		},
		{
			name: "two posts",
			posts: []*domain.Post{
				post("root", 0),
				post("a", 1, "root", "b"),
				post("b", 2, "a"),
			},
			root: "root",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := threadsvc.NewGraph(tt.posts).Expand(tt.root)
			require.ErrorIs(t, err, domain.ErrStorageIntegrity)
		})
	}
}

func TestTail(t *testing.T) {
	t.Parallel()

	t.Run("chain", func(t *testing.T) {
		t.Parallel()

		graph := threadsvc.NewGraph([]*domain.Post{
			post("a", 0),
			post("b", 1, "a"),
			post("c", 2, "b"),
			post("d", 3, "c"),
		})
		assert.Equal(t, []domain.PostID{"d"}, graph.Tail())
	})

	t.Run("branches and separate threads", func(t *testing.T) {
		t.Parallel()

		graph := threadsvc.NewGraph([]*domain.Post{
			post("a", 0),
			post("b", 1, "a"),
			post("c", 2, "a"),
			post("x", 3),
		})
		assert.Equal(t, []domain.PostID{"b", "c", "x"}, graph.Tail())
	})

	t.Run("empty", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, threadsvc.NewGraph(nil).Tail())
	})
}

func TestTopLevelAndChildren(t *testing.T) {
	t.Parallel()

	graph := threadsvc.NewGraph(append(diamond(), post("x", 4)))

	assert.Equal(t, []domain.PostID{"a", "x"}, ids(graph.TopLevel()))
	assert.Equal(t, []domain.PostID{"b", "d"}, graph.Children("a"))
	assert.Empty(t, graph.Children("d"))
	assert.Equal(t, 5, graph.Len())

	p, ok := graph.Post("c")
	require.True(t, ok)
	assert.Equal(t, "post c", p.Title)
}
