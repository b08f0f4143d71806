package runtime

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
)

var (
	ErrDirtyHelperStorage = errors.New("dirty helper image storage")
	ErrHelperNotInstalled = errors.New("helper image not installed")
)

// storage represents the HelperImage storage, taking care of filesystem
// image operations, such as install, update, remove, etc. tmpPath is
// reserved for staging partially-unpacked images; the current Install
// implementation unpacks directly to the final rootfs path, non-atomically.
type storage struct {
	path    string
	tmpPath string
}

func newStorage(path, tmpPath string) *storage {
	return &storage{path: path, tmpPath: tmpPath}
}

// Install installs a HelperImage extracting its content to the filesystem,
// only one version per image can be stored, update is required to overwrite
// a previous image if already exists otherwise, Install is a no-op if a
// previous image already exists.
func (s *storage) Install(d HelperImage, update bool) (*HelperImageStatus, error) {
	current, err := s.RootFS(d)
	if err != nil && err != ErrHelperNotInstalled {
		return nil, err
	}

	exists := current != ""
	if exists && !update {
		return s.Status(d)
	}

	di, err := d.Digest()
	if err != nil {
		return nil, err
	}

	if exists {
		if err := s.Remove(d); err != nil {
			return nil, err
		}
	}

	rootfs := s.rootFSPath(d, di)
	if err := os.MkdirAll(filepath.Dir(rootfs), 0755); err != nil {
		return nil, err
	}
	if err := d.WriteTo(rootfs); err != nil {
		return nil, err
	}

	return s.Status(d)
}

// RootFS returns the path in the host filesystem to an installed image.
func (s *storage) RootFS(d HelperImage) (string, error) {
	return s.rootFSFromBase(s.basePath(d))
}

func (s *storage) rootFSFromBase(path string) (string, error) {
	dirs, err := getDirs(path)
	if err != nil {
		return "", err
	}

	switch len(dirs) {
	case 1:
		return dirs[0], nil
	case 0:
		return "", ErrHelperNotInstalled
	default:
		return "", ErrDirtyHelperStorage
	}
}

// Status returns the current status in the storage for a given HelperImage,
// a nil status and ErrHelperNotInstalled are returned if the image is not
// installed.
func (s *storage) Status(d HelperImage) (*HelperImageStatus, error) {
	path, err := s.RootFS(d)
	if err != nil {
		return nil, err
	}

	return newHelperImageStatus(path)
}

// Remove removes a given HelperImage from the filesystem.
func (s *storage) Remove(d HelperImage) error {
	path, err := s.RootFS(d)
	if err != nil {
		return err
	}

	return os.RemoveAll(path)
}

// List lists all the helper images installed on disk.
func (s *storage) List() ([]*HelperImageStatus, error) {
	dirs, err := getDirs(s.path)
	if err != nil {
		return nil, err
	}

	var list []*HelperImageStatus
	for _, base := range dirs {
		root, err := s.rootFSFromBase(base)
		if err != nil {
			return nil, err
		}

		status, err := newHelperImageStatus(root)
		if err != nil {
			return nil, err
		}

		list = append(list, status)
	}

	return list, nil
}

func (s *storage) rootFSPath(d HelperImage, di Digest) string {
	return filepath.Join(s.basePath(d), di.String())
}

func (s *storage) basePath(d HelperImage) string {
	return filepath.Join(s.path, d.Name())
}

func getDirs(path string) ([]string, error) {
	files, err := ioutil.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var dirs []string
	for _, f := range files {
		if !f.IsDir() {
			continue
		}

		dirs = append(dirs, filepath.Join(path, f.Name()))
	}

	return dirs, nil
}

func newHelperImageStatus(path string) (*HelperImageStatus, error) {
	base, digest := filepath.Split(path)
	name := filepath.Base(base)

	return &HelperImageStatus{
		Reference: name,
		Digest:    NewDigest(digest),
		Path:      path,
	}, nil
}

// HelperImageStatus represents the status of an installed helper image on
// disk.
type HelperImageStatus struct {
	Reference string
	Digest    Digest
	Path      string
}
