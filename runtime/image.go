package runtime

import (
	"fmt"
	"strings"

	"github.com/containers/image/docker"
	"github.com/containers/image/image"
	"github.com/containers/image/types"
)

// HelperImage represents an OCI/docker image holding a sandboxed I/O
// helper-process binary: same fetch/unpack mechanism as a language-driver
// image, a different payload.
type HelperImage interface {
	Name() string
	Digest() (Digest, error)
	Inspect() (*types.ImageInspectInfo, error)
	WriteTo(path string) error
}

type helperImage struct {
	ref types.ImageReference
}

// NewHelperImage returns a new HelperImage from a docker image reference.
// The format of imageRef is defined by docker.ParseReference: a
// non-normalized string like `softnic/pmd-helper:latest` or a normalized
// reference like `//softnic/pmd-helper:latest`.
func NewHelperImage(imageRef string) (HelperImage, error) {
	imageRef = strings.TrimPrefix(imageRef, "//")
	ref, err := docker.ParseReference(fmt.Sprintf("//%s", imageRef))
	if err != nil {
		return nil, fmt.Errorf("invalid source ref %s: %v", imageRef, err)
	}

	return &helperImage{ref: ref}, nil
}

// Name returns the name of the helper image based on the image reference.
func (d *helperImage) Name() string {
	return strings.TrimPrefix(d.ref.StringWithinTransport(), "//")
}

// Digest computes a digest based on the image layers.
func (d *helperImage) Digest() (Digest, error) {
	img, err := d.image()
	if err != nil {
		return nil, err
	}

	defer img.Close()
	i, err := img.Inspect()
	if err != nil {
		return nil, err
	}

	return ComputeDigest(i.Layers...), nil
}

func (d *helperImage) Inspect() (*types.ImageInspectInfo, error) {
	img, err := d.image()
	if err != nil {
		return nil, err
	}

	defer img.Close()
	return img.Inspect()
}

// WriteTo writes the image's rootfs to disk at the given path.
func (d *helperImage) WriteTo(path string) error {
	img, err := d.image()
	if err != nil {
		return err
	}

	defer img.Close()
	return UnpackImage(img, path)
}

func (d *helperImage) image() (types.Image, error) {
	raw, err := d.ref.NewImageSource(nil, nil)
	if err != nil {
		return nil, err
	}

	unparsedImage := image.UnparsedFromSource(raw)
	return image.FromUnparsedImage(unparsedImage)
}
