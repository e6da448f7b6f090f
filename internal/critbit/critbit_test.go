package critbit_test

import (
	"testing"

	"code.hybscloud.com/netfab/internal/critbit"
)

func terminated(s string) []byte { return append([]byte(s), 0) }

func TestTree_InsertGetContains(t *testing.T) {
	var tr critbit.Tree
	names := []string{"eth0", "eth1", "tee0", "nic-out", "a"}
	for _, n := range names {
		if !tr.Insert(terminated(n)) {
			t.Fatalf("Insert(%q) reported duplicate on first insert", n)
		}
	}
	for _, n := range names {
		if !tr.Contains(terminated(n)) {
			t.Errorf("Contains(%q) = false, want true", n)
		}
	}
	if tr.Contains(terminated("missing")) {
		t.Error("Contains(missing) = true, want false")
	}
}

func TestTree_InsertDuplicate(t *testing.T) {
	var tr critbit.Tree
	tr.Insert(terminated("eth0"))
	if tr.Insert(terminated("eth0")) {
		t.Error("Insert of duplicate key returned true, want false")
	}
}

func TestTree_Delete(t *testing.T) {
	var tr critbit.Tree
	tr.Insert(terminated("eth0"))
	tr.Insert(terminated("eth1"))
	if !tr.Delete(terminated("eth0")) {
		t.Fatal("Delete(eth0) = false, want true")
	}
	if tr.Contains(terminated("eth0")) {
		t.Error("eth0 still present after delete")
	}
	if !tr.Contains(terminated("eth1")) {
		t.Error("eth1 should remain present")
	}
	if tr.Delete(terminated("eth0")) {
		t.Error("second Delete(eth0) = true, want false")
	}
}

func TestTree_WalkOrdered(t *testing.T) {
	var tr critbit.Tree
	for _, n := range []string{"zeta", "alpha", "mid", "beta"} {
		tr.Insert(terminated(n))
	}
	var got []string
	tr.Walk(func(key []byte) bool {
		got = append(got, string(key[:len(key)-1]))
		return true
	})
	want := []string{"alpha", "beta", "mid", "zeta"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Walk order[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
