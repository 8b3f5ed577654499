// Package threadsvc derives reply threads from the flat set of posts.
// A post's context names the posts it replies to; the graph inverts those
// edges into backlinks so a thread can be walked from its root.
package threadsvc

import (
	"fmt"
	"slices"

	"github.com/apiarian/village/internal/domain"
)

// Graph is an immutable backlink index over a snapshot of posts.
type Graph struct {
	posts    map[domain.PostID]*domain.Post
	order    []domain.PostID
	children map[domain.PostID][]domain.PostID
}

// NewGraph indexes posts. Children of a post are ordered by timestamp,
// ties keeping the order of posts. Context entries naming unknown posts
// are ignored.
func NewGraph(posts []*domain.Post) *Graph {
	g := &Graph{
		posts:    make(map[domain.PostID]*domain.Post, len(posts)),
		order:    make([]domain.PostID, 0, len(posts)),
		children: make(map[domain.PostID][]domain.PostID),
	}

	for _, post := range posts {
		if post == nil {
			continue
		}

		if _, dup := g.posts[post.ID]; dup {
			continue
		}

		g.posts[post.ID] = post
		g.order = append(g.order, post.ID)
	}

	for _, id := range g.order {
		seen := make(map[domain.PostID]bool, len(g.posts[id].Context))

		for _, parent := range g.posts[id].Context {
			if _, ok := g.posts[parent]; !ok || seen[parent] {
				continue
			}

			seen[parent] = true
			g.children[parent] = append(g.children[parent], id)
		}
	}

	for parent, kids := range g.children {
		slices.SortStableFunc(kids, func(a, b domain.PostID) int {
			return g.posts[a].Timestamp.Compare(g.posts[b].Timestamp)
		})
		g.children[parent] = kids
	}

	return g
}

// Len returns the number of indexed posts.
func (g *Graph) Len() int {
	return len(g.order)
}

// Post returns the indexed post with the given id.
func (g *Graph) Post(id domain.PostID) (*domain.Post, bool) {
	post, ok := g.posts[id]

	return post, ok
}

// TopLevel returns the posts that reply to nothing, in index order.
func (g *Graph) TopLevel() []*domain.Post {
	var top []*domain.Post

	for _, id := range g.order {
		if g.posts[id].IsTopLevel() {
			top = append(top, g.posts[id])
		}
	}

	return top
}

// Children returns the ids of the direct replies to id.
func (g *Graph) Children(id domain.PostID) []domain.PostID {
	return slices.Clone(g.children[id])
}

// Tail returns the ids of posts no other post replies to, in index order.
// A new reply may attach to any subset of them.
func (g *Graph) Tail() []domain.PostID {
	var tail []domain.PostID

	for _, id := range g.order {
		if len(g.children[id]) == 0 {
			tail = append(tail, id)
		}
	}

	return tail
}

// Expand walks the thread rooted at root breadth first. Every post appears
// once, after at least one of its parents. A cycle reachable from root is
// reported as domain.ErrStorageIntegrity.
func (g *Graph) Expand(root domain.PostID) ([]*domain.Post, error) {
	if _, ok := g.posts[root]; !ok {
		return nil, fmt.Errorf("%w: thread root %q", domain.ErrPostNotFound, root)
	}

	if cycle := g.findCycle(root); cycle != nil {
		return nil, fmt.Errorf("%w: reply cycle %v", domain.ErrStorageIntegrity, cycle)
	}

	visited := map[domain.PostID]bool{root: true}
	queue := []domain.PostID{root}
	thread := make([]*domain.Post, 0, len(g.posts))

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]

		thread = append(thread, g.posts[id])

		for _, child := range g.children[id] {
			if visited[child] {
				continue
			}

			visited[child] = true
			queue = append(queue, child)
		}
	}

	return thread, nil
}

type mark uint8

const (
	unvisited mark = iota
	active
	done
)

// findCycle returns the posts along a backlink cycle reachable from root,
// or nil if there is none.
func (g *Graph) findCycle(root domain.PostID) []domain.PostID {
	marks := make(map[domain.PostID]mark)

	var (
		path  []domain.PostID
		visit func(id domain.PostID) []domain.PostID
	)

	visit = func(id domain.PostID) []domain.PostID {
		marks[id] = active
		path = append(path, id)

		for _, child := range g.children[id] {
			switch marks[child] {
			case active:
				start := slices.Index(path, child)

				return append(slices.Clone(path[start:]), child)
			case unvisited:
				if cycle := visit(child); cycle != nil {
					return cycle
				}
			case done:
			}
		}

		path = path[:len(path)-1]
		marks[id] = done

		return nil
	}

	return visit(root)
}
