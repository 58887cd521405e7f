package testutil

import (
	"io/ioutil"
	"path"
	"runtime"
	"testing"
)

// Fixture loads a shared test document from the fixtures directory.
func Fixture(t *testing.T, name string) []byte {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatalf("error loading caller")
	}

	p := path.Join(path.Dir(filename), "fixtures", name)

	bytes, err := ioutil.ReadFile(p)
	if err != nil {
		t.Fatalf("error loading fixture %s: %v", p, err)
	}

	return bytes
}
