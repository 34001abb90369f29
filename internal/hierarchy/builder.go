/* Copyright (c) 2025 Hamed Shams <https://hamedshams.com>
 * SPDX-License-Identifier: BSD-3-Clause */

// Package hierarchy arranges processed issues into a parent/child forest.
//
// Edges come from explicit parent references first and from semantic link
// types second. A child keeps the first parent it is given, and an edge that
// would make a node its own descendant is rejected and logged.
package hierarchy

import (
	"sort"

	"github.com/anvarKhakimov/jira-gantt-app/internal/domain"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

const (
	OriginParent    = "parent"
	OriginInclusion = "inclusion"
	OriginPartOf    = "part-of"
)

type builder struct {
	vocab domain.Vocabulary
	log   zerolog.Logger
	nodes []domain.HierarchyNode
	index map[string]int
	g     *simple.DirectedGraph
	rej   []domain.RejectedEdge
}

// Build returns the forest for issues. Node i wraps issues[i].
func Build(issues []domain.ProcessedIssue, vocab domain.Vocabulary, log zerolog.Logger) domain.Forest {
	b := &builder{
		vocab: vocab,
		log:   log,
		nodes: make([]domain.HierarchyNode, len(issues)),
		index: make(map[string]int, len(issues)),
		g:     simple.NewDirectedGraph(),
	}
	for i, iss := range issues {
		b.nodes[i] = domain.HierarchyNode{Key: iss.Key, Issue: i, Parent: -1, Children: []int{}}
		if _, dup := b.index[iss.Key]; !dup {
			b.index[iss.Key] = i
		}
		b.g.AddNode(simple.Node(i))
	}

	for i, iss := range issues {
		if iss.ParentKey == "" {
			continue
		}
		if p, ok := b.index[iss.ParentKey]; ok {
			b.attach(p, i, OriginParent)
		}
	}
	for i, iss := range issues {
		for _, l := range iss.Links {
			switch {
			case l.Direction == domain.Outward && domain.MatchLabel(l.Type, vocab.InclusionLinks):
				if c, ok := b.index[l.Issue.Key]; ok {
					b.attach(i, c, OriginInclusion)
				}
			case l.Direction == domain.Inward && domain.MatchLabel(l.Type, vocab.PartOfLinks):
				if p, ok := b.index[l.Issue.Key]; ok {
					b.attach(p, i, OriginPartOf)
				}
			}
		}
	}

	roots := b.assignDepths()
	return domain.NewForest(b.nodes, roots, b.rej)
}

func (b *builder) attach(parent, child int, origin string) {
	pk, ck := b.nodes[parent].Key, b.nodes[child].Key
	if b.nodes[child].Parent >= 0 {
		b.log.Debug().Str("parent", pk).Str("child", ck).Str("origin", origin).
			Str("current_parent", b.nodes[child].ParentKey).Msg("child already has a parent")
		return
	}
	if parent == child || b.reaches(child, parent) {
		b.log.Warn().Str("parent", pk).Str("child", ck).Str("origin", origin).Msg("hierarchy: cyclic relation rejected")
		b.rej = append(b.rej, domain.RejectedEdge{Parent: pk, Child: ck, Origin: origin, Reason: "cycle"})
		return
	}
	b.nodes[child].Parent = parent
	b.nodes[child].ParentKey = pk
	b.nodes[parent].Children = append(b.nodes[parent].Children, child)
	b.g.SetEdge(b.g.NewEdge(b.g.Node(int64(parent)), b.g.Node(int64(child))))
}

// reaches reports whether to is a descendant of from over accepted edges.
// Each call walks with its own visited set.
func (b *builder) reaches(from, to int) bool {
	return topo.PathExistsIn(b.g, b.g.Node(int64(from)), b.g.Node(int64(to)))
}

func (b *builder) assignDepths() []int {
	roots := []int{}
	for i := range b.nodes {
		if b.nodes[i].Parent < 0 {
			roots = append(roots, i)
		}
	}
	for _, r := range roots {
		visited := map[int]bool{r: true}
		queue := []int{r}
		b.nodes[r].Depth = 0
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			for _, c := range b.nodes[n].Children {
				if visited[c] {
					continue
				}
				visited[c] = true
				b.nodes[c].Depth = b.nodes[n].Depth + 1
				queue = append(queue, c)
			}
		}
	}
	return roots
}

// MainIssue picks the issue the timeline is centred on: preferred when present,
// then the first epic, then the most connected issue.
func MainIssue(issues []domain.ProcessedIssue, preferred string, vocab domain.Vocabulary) string {
	if len(issues) == 0 {
		return ""
	}
	if preferred != "" {
		for _, iss := range issues {
			if iss.Key == preferred {
				return preferred
			}
		}
	}
	for _, iss := range issues {
		if domain.MatchLabel(iss.IssueType, vocab.EpicTypes) {
			return iss.Key
		}
	}

	type conn struct {
		key string
		n   int
	}
	conns := make([]conn, len(issues))
	for i, iss := range issues {
		conns[i].key = iss.Key
		for _, other := range issues {
			if other.ParentKey == iss.Key || linksTo(other, iss.Key) {
				conns[i].n++
			}
		}
	}
	sort.SliceStable(conns, func(i, j int) bool { return conns[i].n > conns[j].n })
	return conns[0].key
}

func linksTo(iss domain.ProcessedIssue, key string) bool {
	for _, l := range iss.Links {
		if l.Issue.Key == key {
			return true
		}
	}
	return false
}
