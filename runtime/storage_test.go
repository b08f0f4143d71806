package runtime

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/containers/image/types"
	"github.com/stretchr/testify/assert"
)

// fixtureHelperImage is an in-memory HelperImage used to exercise storage
// without touching the network.
type fixtureHelperImage struct {
	ref    string
	digest Digest
}

func (f *fixtureHelperImage) Name() string              { return f.ref }
func (f *fixtureHelperImage) Digest() (Digest, error)   { return f.digest, nil }
func (f *fixtureHelperImage) Inspect() (*types.ImageInspectInfo, error) {
	return nil, nil
}
func (f *fixtureHelperImage) WriteTo(path string) error { return os.MkdirAll(path, 0755) }

func newFixtureHelperImage(ref string) *fixtureHelperImage {
	return &fixtureHelperImage{ref: ref, digest: ComputeDigest(ref)}
}

func TestStorageInstall(t *testing.T) {
	dir, err := ioutil.TempDir("", "runtime-storage-install")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	d := newFixtureHelperImage("foo")

	s := newStorage(dir, filepath.Join(dir, "tmp"))
	_, err = s.Install(d, false)
	assert.Nil(t, err)
}

func TestStorageStatus(t *testing.T) {
	dir, err := ioutil.TempDir("", "runtime-storage-install")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	d := newFixtureHelperImage("foo")

	s := newStorage(dir, filepath.Join(dir, "tmp"))
	_, err = s.Install(d, false)
	assert.Nil(t, err)

	status, err := s.Status(d)
	assert.Nil(t, err)
	assert.False(t, status.Digest.IsZero())
	assert.Equal(t, "foo", status.Reference)
}

func TestStorageStatusAndDirty(t *testing.T) {
	dir, err := ioutil.TempDir("", "runtime-storage-status")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	d := newFixtureHelperImage("foo")

	s := newStorage(dir, filepath.Join(dir, "tmp"))
	_, err = s.Install(d, false)
	assert.Nil(t, err)

	err = os.MkdirAll(filepath.Join(dir, "foo", ComputeDigest("bar").String()), 0777)
	assert.Nil(t, err)
	di, err := s.Status(d)
	assert.Equal(t, ErrDirtyHelperStorage, err)
	assert.Nil(t, di)
}

func TestStorageStatusNotInstalled(t *testing.T) {
	dir, err := ioutil.TempDir("", "runtime-storage-status-empty")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	d, err := NewHelperImage("//busybox:latest")
	assert.Nil(t, err)

	s := newStorage(dir, filepath.Join(dir, "tmp"))
	di, err := s.Status(d)
	assert.Equal(t, ErrHelperNotInstalled, err)
	assert.Nil(t, di)
}

func TestStorageRemove(t *testing.T) {
	dir, err := ioutil.TempDir("", "runtime-storage-remove")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	d := newFixtureHelperImage("foo")

	s := newStorage(dir, filepath.Join(dir, "tmp"))

	_, err = s.Install(d, false)
	assert.Nil(t, err)

	err = s.Remove(d)
	assert.Nil(t, err)

	status, err := s.Status(d)
	assert.Equal(t, ErrHelperNotInstalled, err)
	assert.Nil(t, status)
}

func TestStorageRemoveEmpty(t *testing.T) {
	dir, err := ioutil.TempDir("", "runtime-storage-remove-empty")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	d, err := NewHelperImage("//busybox:latest")
	assert.Nil(t, err)

	s := newStorage(dir, filepath.Join(dir, "tmp"))
	err = s.Remove(d)
	assert.Equal(t, ErrHelperNotInstalled, err)
}

func TestStorageList(t *testing.T) {
	dir, err := ioutil.TempDir("", "runtime-storage-list")
	assert.Nil(t, err)
	defer os.RemoveAll(dir)

	s := newStorage(dir, filepath.Join(dir, "tmp"))

	_, err = s.Install(newFixtureHelperImage("foo"), false)
	assert.Nil(t, err)
	_, err = s.Install(newFixtureHelperImage("bar"), false)
	assert.Nil(t, err)

	list, err := s.List()
	assert.Nil(t, err)
	assert.Len(t, list, 2)

	for _, status := range list {
		assert.False(t, status.Digest.IsZero())
		assert.True(t, len(status.Reference) > 0)
	}
}
