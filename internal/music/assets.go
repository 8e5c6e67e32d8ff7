package music

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hajimehoshi/go-mp3"

	"github.com/justestif/go-mood-melodies/internal/mood"
)

// Decoded PCM is 16-bit stereo.
const bytesPerFrame = 4

// LoadBundledAssets scans dir/<mood>/*.mp3 (mood directory names are
// lowercase, such as "happy") and reads each file's duration. Files that
// cannot be decoded are skipped and reported in the joined error alongside
// whatever did load. A missing dir yields an empty map.
func LoadBundledAssets(dir string) (map[mood.Label][]Song, error) {
	assets := make(map[mood.Label][]Song)
	if dir == "" {
		return assets, nil
	}

	var errs []error
	for _, l := range mood.Labels() {
		key := strings.ToLower(string(l))
		matches, err := filepath.Glob(filepath.Join(dir, key, "*.mp3"))
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", key, err)
		}
		sort.Strings(matches)

		for _, path := range matches {
			seconds, err := mp3Duration(path)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			artist, title := parseAssetName(filepath.Base(path))
			assets[l] = append(assets[l], Song{
				ID:              fmt.Sprintf("%s_%d", key, len(assets[l])+1),
				Title:           title,
				Artist:          artist,
				Image:           DefaultImage(l),
				DurationSeconds: seconds,
				Source:          path,
			})
		}
	}

	return assets, errors.Join(errs...)
}

func mp3Duration(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return 0, fmt.Errorf("decoding %s: %w", path, err)
	}

	rate := decoder.SampleRate()
	length := decoder.Length()
	if rate <= 0 || length < 0 {
		return 0, fmt.Errorf("decoding %s: unknown length", path)
	}
	return int(length / int64(bytesPerFrame*rate)), nil
}

// parseAssetName splits "Artist - Title.mp3" or "some-title.mp3" into a
// display artist and title.
func parseAssetName(name string) (artist, title string) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	artist = "Unknown Artist"

	if a, t, ok := strings.Cut(base, " - "); ok {
		artist = strings.TrimSpace(a)
		base = t
	}

	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return artist, strings.Join(words, " ")
}
