package pack

import (
	"testing"

	"github.com/treeship-labs/treeship/internal/scan"
)

const kb = 1024

func sized(name string, size int64) scan.SourceFile {
	return scan.SourceFile{Path: name, SizeBytes: size}
}

func memberPaths(b Bundle) []string {
	var out []string
	for _, m := range b.Members {
		out = append(out, m.Path)
	}
	return out
}

func TestGroupSpecScenario(t *testing.T) {
	// 700, 400, 300, 50, 50 KB with target 650 KB and hard cap 1024 KB
	// packs as [700], [400], [300, 50, 50].
	files := []scan.SourceFile{
		sized("a", 700*kb),
		sized("b", 400*kb),
		sized("c", 300*kb),
		sized("d", 50*kb),
		sized("e", 50*kb),
	}

	bundles, err := Group(files, 650*kb, 1024*kb)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(bundles) != 3 {
		t.Fatalf("got %d bundles, want 3", len(bundles))
	}

	want := [][]string{{"a"}, {"b"}, {"c", "d", "e"}}
	for i, b := range bundles {
		got := memberPaths(b)
		if len(got) != len(want[i]) {
			t.Fatalf("bundle %d members = %v, want %v", i+1, got, want[i])
		}
		for j := range got {
			if got[j] != want[i][j] {
				t.Errorf("bundle %d members = %v, want %v", i+1, got, want[i])
			}
		}
		if b.CapKind != CapNormal {
			t.Errorf("bundle %d kind = %s, want normal", i+1, b.CapKind)
		}
		if b.Ordinal != i+1 {
			t.Errorf("bundle %d ordinal = %d", i+1, b.Ordinal)
		}
	}
}

func TestGroupOversizedSingleton(t *testing.T) {
	files := []scan.SourceFile{
		sized("huge", 2048*kb),
		sized("small", 10*kb),
	}

	bundles, err := Group(files, 650*kb, 1024*kb)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(bundles) != 2 {
		t.Fatalf("got %d bundles, want 2", len(bundles))
	}
	if bundles[0].CapKind != CapOversized || len(bundles[0].Members) != 1 {
		t.Errorf("oversized file should be alone in its bundle: %+v", bundles[0])
	}
	if bundles[1].CapKind != CapNormal {
		t.Errorf("second bundle should be normal: %+v", bundles[1])
	}
}

func TestGroupOversizedFlushesCurrent(t *testing.T) {
	// Encounter order after sorting: huge first, so the small files come
	// after. Make the oversized item appear mid-stream by size ordering.
	files := []scan.SourceFile{
		sized("mid", 600*kb),
		sized("huge", 2048*kb),
		sized("tail", 20*kb),
	}

	bundles, err := Group(files, 650*kb, 1024*kb)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	// Sorted: huge(2048), mid(600), tail(20) → [huge], [mid, tail].
	if len(bundles) != 2 {
		t.Fatalf("got %d bundles, want 2", len(bundles))
	}
	if bundles[0].CapKind != CapOversized {
		t.Errorf("first bundle should be the oversized singleton")
	}
	got := memberPaths(bundles[1])
	if len(got) != 2 || got[0] != "mid" || got[1] != "tail" {
		t.Errorf("second bundle members = %v, want [mid tail]", got)
	}
}

func TestGroupInvariants(t *testing.T) {
	tests := []struct {
		name  string
		sizes []int64
	}{
		{"uniform small", []int64{10 * kb, 10 * kb, 10 * kb, 10 * kb}},
		{"all oversized", []int64{2000 * kb, 3000 * kb}},
		{"mixed", []int64{1500 * kb, 700 * kb, 640 * kb, 300 * kb, 5 * kb, 5 * kb, 5 * kb}},
		{"single file", []int64{1 * kb}},
		{"zero-size files", []int64{0, 0, 5 * kb}},
	}

	target, hardCap := int64(650*kb), int64(1024*kb)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var files []scan.SourceFile
			var wantTotal int64
			for i, s := range tt.sizes {
				files = append(files, sized(string(rune('a'+i)), s))
				wantTotal += s
			}

			bundles, err := Group(files, target, hardCap)
			if err != nil {
				t.Fatalf("Group: %v", err)
			}

			seen := make(map[string]int)
			var gotTotal int64
			for _, b := range bundles {
				var bundleTotal int64
				for _, m := range b.Members {
					seen[m.Path]++
					bundleTotal += m.SizeBytes
				}
				if bundleTotal != b.TotalSizeBytes {
					t.Errorf("bundle %d recorded size %d, members sum %d", b.Ordinal, b.TotalSizeBytes, bundleTotal)
				}
				gotTotal += b.TotalSizeBytes

				if b.CapKind == CapOversized {
					if len(b.Members) != 1 || b.Members[0].SizeBytes <= hardCap {
						t.Errorf("invalid oversized singleton: %+v", b)
					}
				} else if b.TotalSizeBytes > hardCap {
					t.Errorf("normal bundle %d exceeds hard cap: %d", b.Ordinal, b.TotalSizeBytes)
				}
			}

			// Every file in exactly one bundle; sizes conserved.
			for _, f := range files {
				if seen[f.Path] != 1 {
					t.Errorf("file %s appears %d times", f.Path, seen[f.Path])
				}
			}
			if gotTotal != wantTotal {
				t.Errorf("total bundled bytes %d, want %d", gotTotal, wantTotal)
			}
		})
	}
}

func TestGroupStablePartition(t *testing.T) {
	files := []scan.SourceFile{
		sized("x", 100*kb), sized("y", 100*kb), sized("z", 100*kb),
	}

	first, err := Group(files, 650*kb, 1024*kb)
	if err != nil {
		t.Fatal(err)
	}
	second, err := Group(files, 650*kb, 1024*kb)
	if err != nil {
		t.Fatal(err)
	}

	if len(first) != len(second) {
		t.Fatalf("re-run produced different bundle count")
	}
	for i := range first {
		a, b := memberPaths(first[i]), memberPaths(second[i])
		for j := range a {
			if a[j] != b[j] {
				t.Errorf("bundle %d membership differs between runs: %v vs %v", i+1, a, b)
			}
		}
	}
	// Equal sizes keep encounter order.
	got := memberPaths(first[0])
	if got[0] != "x" || got[1] != "y" || got[2] != "z" {
		t.Errorf("stable sort should preserve encounter order, got %v", got)
	}
}

func TestGroupEmptyInput(t *testing.T) {
	bundles, err := Group(nil, 650*kb, 1024*kb)
	if err != nil {
		t.Fatalf("Group: %v", err)
	}
	if len(bundles) != 0 {
		t.Errorf("expected no bundles for empty input")
	}
}

func TestGroupInvalidCaps(t *testing.T) {
	files := []scan.SourceFile{sized("a", kb)}
	if _, err := Group(files, 0, 1024); err == nil {
		t.Error("expected error for zero target")
	}
	if _, err := Group(files, 1024, 512); err == nil {
		t.Error("expected error for hard cap below target")
	}
}
