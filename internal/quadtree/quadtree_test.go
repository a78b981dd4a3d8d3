package quadtree

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

// splitRandomly performs n splits on random leaves and returns the tree.
func splitRandomly(rng *rand.Rand, n int) *Node {
	root := NewRoot(mgl64.Vec2{0, 0}, 64)
	for i := 0; i < n; i++ {
		var leaves []*Node
		for leaf := range root.Leaves() {
			leaves = append(leaves, leaf)
		}
		if err := leaves[rng.Intn(len(leaves))].Split(); err != nil {
			panic(err)
		}
	}
	return root
}

func TestSplitCreatesFourHalfSizeChildren(t *testing.T) {
	root := NewRoot(mgl64.Vec2{10, -4}, 8)
	if err := root.Split(); err != nil {
		t.Fatalf("split: %v", err)
	}
	want := []mgl64.Vec2{{8, -6}, {12, -6}, {8, -2}, {12, -2}}
	kids := root.Children()
	if len(kids) != 4 {
		t.Fatalf("children = %d, want 4", len(kids))
	}
	for i, c := range kids {
		if c.Size != 4 || c.Depth != 1 || !c.IsLeaf() {
			t.Fatalf("child %d = %+v", i, c)
		}
		if !c.Center.ApproxEqual(want[i]) {
			t.Fatalf("child %d center %v, want %v", i, c.Center, want[i])
		}
	}
	if err := root.Split(); !errors.Is(err, ErrAlreadySplit) {
		t.Fatalf("second split err = %v", err)
	}
}

func TestMergeRevertsToLeaf(t *testing.T) {
	root := NewRoot(mgl64.Vec2{}, 4)
	if err := root.Merge(); !errors.Is(err, ErrLeaf) {
		t.Fatalf("merge on leaf err = %v", err)
	}
	_ = root.Split()
	if err := root.Merge(); err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !root.IsLeaf() || root.LeafCount() != 1 {
		t.Fatalf("root not a leaf after merge")
	}
}

func TestLeafCountAfterSplits(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for splits := 0; splits < 60; splits += 7 {
		root := splitRandomly(rng, splits)
		if got, want := root.LeafCount(), 3*splits+1; got != want {
			t.Fatalf("after %d splits leaf count = %d, want %d", splits, got, want)
		}
	}
}

func TestLeavesPartitionRoot(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	root := splitRandomly(rng, 40)

	var leaves []*Node
	area := 0.0
	for leaf := range root.Leaves() {
		leaves = append(leaves, leaf)
		area += leaf.Size * leaf.Size
	}
	if math.Abs(area-root.Size*root.Size) > 1e-9 {
		t.Fatalf("leaf area %v, root area %v", area, root.Size*root.Size)
	}
	for i := range leaves {
		for j := i + 1; j < len(leaves); j++ {
			if leaves[i].Overlaps(leaves[j]) {
				t.Fatalf("leaves %v and %v overlap", leaves[i].Center, leaves[j].Center)
			}
		}
	}
}

func TestLeavesEarlyStopAndNoMutation(t *testing.T) {
	root := splitRandomly(rand.New(rand.NewSource(3)), 10)
	before := root.LeafCount()
	seen := 0
	for range root.Leaves() {
		seen++
		if seen == 2 {
			break
		}
	}
	if seen != 2 {
		t.Fatalf("early stop saw %d", seen)
	}
	if root.LeafCount() != before {
		t.Fatalf("iteration mutated the tree")
	}
}

func TestShouldSplitIgnoresHeight(t *testing.T) {
	n := NewRoot(mgl64.Vec2{0, 0}, 10)
	// 10 units up the face normal, directly over the center.
	if !n.ShouldSplit(mgl64.Vec3{0, 1000, 0}, 1.5) {
		t.Fatalf("planar distance should ignore the Y axis")
	}
	if n.ShouldSplit(mgl64.Vec3{16, 0, 0}, 1.5) {
		t.Fatalf("distance 16 >= 15 should not split")
	}
}

func TestHysteresisBand(t *testing.T) {
	const split, merge = 1.5, 2.5
	cam := mgl64.Vec3{20, 0, 0} // ratio 2.0 for a size-10 node at the origin

	leaf := NewRoot(mgl64.Vec2{}, 10)
	if leaf.ShouldSplit(cam, split) || leaf.ShouldMerge(cam, merge) {
		t.Fatalf("leaf inside the band must stay put")
	}

	internal := NewRoot(mgl64.Vec2{}, 10)
	_ = internal.Split()
	if internal.ShouldSplit(cam, split) || internal.ShouldMerge(cam, merge) {
		t.Fatalf("internal node inside the band must stay put")
	}

	if !internal.ShouldMerge(mgl64.Vec3{26, 0, 0}, merge) {
		t.Fatalf("ratio 2.6 should merge")
	}
}

func TestMergeIsBottomUp(t *testing.T) {
	root := NewRoot(mgl64.Vec2{}, 16)
	_ = root.Split()
	_ = root.Children()[0].Split()
	far := mgl64.Vec3{1e6, 0, 0}
	if root.ShouldMerge(far, 2.5) {
		t.Fatalf("node with grandchildren must not merge")
	}
	if !root.Children()[0].ShouldMerge(far, 2.5) {
		t.Fatalf("leaf-only child should merge first")
	}
}

func TestWalkSkipsSubtrees(t *testing.T) {
	root := NewRoot(mgl64.Vec2{}, 16)
	_ = root.Split()
	for _, c := range root.Children() {
		_ = c.Split()
	}
	visited := 0
	root.Walk(func(n *Node) bool {
		visited++
		return n.Depth < 1
	})
	if visited != 5 {
		t.Fatalf("visited %d nodes, want 5", visited)
	}
}

func TestOverlapTouchingEdges(t *testing.T) {
	if Overlap(mgl64.Vec2{0, 0}, 2, mgl64.Vec2{2, 0}, 2) {
		t.Fatalf("edge-adjacent squares do not overlap")
	}
	if !Overlap(mgl64.Vec2{0, 0}, 4, mgl64.Vec2{1, 1}, 2) {
		t.Fatalf("nested squares overlap")
	}
}

func BenchmarkLeaves(b *testing.B) {
	root := splitRandomly(rand.New(rand.NewSource(1)), 500)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = root.LeafCount()
	}
}
