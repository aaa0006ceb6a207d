package document

import "testing"

func TestVersionVectorLessOrEqual(t *testing.T) {
	a := VersionVector{"r1": 2, "r2": 1}
	b := VersionVector{"r1": 2, "r2": 3}

	if !a.LessOrEqual(b) {
		t.Fatalf("expected %v to be dominated by %v", a, b)
	}
	if b.LessOrEqual(a) {
		t.Fatalf("did not expect %v to be dominated by %v", b, a)
	}
}

func TestVersionVectorLessOrEqualWrongType(t *testing.T) {
	a := VersionVector{"r1": 1}
	if a.LessOrEqual(nil) {
		t.Fatalf("expected comparison against a non-VersionVector to be false")
	}
}

func TestVersionVectorMerge(t *testing.T) {
	a := VersionVector{"r1": 2, "r2": 5}
	b := VersionVector{"r1": 4, "r3": 1}

	merged := a.Merge(b).(VersionVector)
	want := VersionVector{"r1": 4, "r2": 5, "r3": 1}
	if !merged.Equal(want) {
		t.Fatalf("merge: got %v, want %v", merged, want)
	}
}

func TestVersionVectorIsEmpty(t *testing.T) {
	if !Empty().IsEmpty() {
		t.Fatalf("expected Empty() to report empty")
	}
	if (VersionVector{"r1": 1}).IsEmpty() {
		t.Fatalf("expected a non-empty vector to report non-empty")
	}
}

func TestVersionVectorClone(t *testing.T) {
	a := VersionVector{"r1": 1}
	clone := a.Clone()
	clone["r1"] = 99
	if a["r1"] != 1 {
		t.Fatalf("expected clone mutation not to affect original, got %v", a)
	}
}
