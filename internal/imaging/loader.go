package imaging

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"os"
	"sync"
)

// ImageCache keeps decoded images in memory keyed by file path.
//
// Marker templates and replacement pictures are read once at startup and
// again whenever a tool call names them, so repeated loads hit the cache.
// ImageCache is safe for concurrent use.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	marker, err := cache.LoadMarker("markers/leo.png", 256)
//	if err != nil {
//	    log.Fatal(err)
//	}
type ImageCache struct {
	mu      sync.RWMutex
	images  map[string]cachedImage
	markers map[markerKey]*image.Gray
}

type cachedImage struct {
	img    image.Image
	format string
}

type markerKey struct {
	path string
	size int
}

// NewImageCache creates an empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images:  make(map[string]cachedImage),
		markers: make(map[markerKey]*image.Gray),
	}
}

// Load returns the decoded image at path, reading it from disk on first use.
//
// Supported formats are PNG, JPEG and GIF. The concrete image type depends
// on the file. The cache key is the path string exactly as given.
func (c *ImageCache) Load(path string) (image.Image, error) {
	entry, err := c.load(path)
	if err != nil {
		return nil, err
	}
	return entry.img, nil
}

func (c *ImageCache) load(path string) (cachedImage, error) {
	c.mu.RLock()
	if entry, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return entry, nil
	}
	c.mu.RUnlock()

	f, err := os.Open(path)
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return cachedImage{}, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	entry := cachedImage{img: img, format: format}
	c.mu.Lock()
	c.images[path] = entry
	c.mu.Unlock()

	return entry, nil
}

// LoadMarker loads a marker template as a binary size x size grayscale
// image.
//
// The file is converted to grayscale, resized to the canonical square when
// its dimensions differ, and binarized at its Otsu level so it compares
// directly with thresholded frame candidates.
func (c *ImageCache) LoadMarker(path string, size int) (*image.Gray, error) {
	key := markerKey{path: path, size: size}
	c.mu.RLock()
	if m, ok := c.markers[key]; ok {
		c.mu.RUnlock()
		return m, nil
	}
	c.mu.RUnlock()

	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}

	var src image.Image = img
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		src = Resize(img, size, size)
	}
	marker, _ := OtsuThreshold(ToGray(src))

	c.mu.Lock()
	c.markers[key] = marker
	c.mu.Unlock()
	return marker, nil
}

// LoadPicture loads a replacement picture as a size x size NRGBA image.
func (c *ImageCache) LoadPicture(path string, size int) (*image.NRGBA, error) {
	img, err := c.Load(path)
	if err != nil {
		return nil, err
	}
	if b := img.Bounds(); b.Dx() != size || b.Dy() != size {
		return Resize(img, size, size), nil
	}
	return ToNRGBA(img), nil
}

// Clear removes every cached image.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]cachedImage)
	c.markers = make(map[markerKey]*image.Gray)
	c.mu.Unlock()
}

// Evict removes path from the cache, including any marker derived from it.
// Unknown paths are ignored.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	for k := range c.markers {
		if k.path == path {
			delete(c.markers, k)
		}
	}
	c.mu.Unlock()
}

// Len returns the number of cached source images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// ImageInfo describes a loaded image file.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the decoder that accepted the file: "png", "jpeg" or "gif".
	Format string `json:"format"`

	// HasAlpha reports whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// LoadImageInfo loads path through cache and reports its metadata.
func LoadImageInfo(cache *ImageCache, path string) (*ImageInfo, error) {
	entry, err := cache.load(path)
	if err != nil {
		return nil, err
	}

	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	hasAlpha := false
	switch entry.img.(type) {
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
	}

	b := entry.img.Bounds()
	return &ImageInfo{
		Width:         b.Dx(),
		Height:        b.Dy(),
		Format:        entry.format,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
