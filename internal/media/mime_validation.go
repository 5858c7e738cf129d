package media

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/bomcatalog-backend/pkg/enums"
)

// sniffLen is how many leading bytes are inspected to detect content type.
const sniffLen = 3072

var imageMimeTypes = []string{"image/png", "image/jpeg", "image/webp", "image/gif"}

// modelContentTypes maps the accepted CAD/mesh extensions to the content type
// recorded for them. Most of these formats have no reliable magic number, so
// the extension decides and sniffing only rules out obvious mismatches.
var modelContentTypes = map[string]string{
	".stl":  "model/stl",
	".step": "model/step",
	".stp":  "model/step",
	".obj":  "model/obj",
	".glb":  "model/gltf-binary",
	".gltf": "model/gltf+json",
	".igs":  "model/iges",
	".iges": "model/iges",
	".3mf":  "model/3mf",
}

var modelExtensions = sortedKeys(modelContentTypes)

func sortedKeys(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// detectContentType decides the stored content type for an upload and
// rejects files that do not belong to the declared kind.
func detectContentType(kind enums.MediaKind, fileName string, head []byte) (string, error) {
	detected := mimetype.Detect(head)

	switch kind {
	case enums.MediaKindImage:
		for _, allowed := range imageMimeTypes {
			if detected.Is(allowed) {
				return allowed, nil
			}
		}
		return "", fmt.Errorf("image must be one of %s, got %s", humanReadableList(imageMimeTypes), detected.String())
	case enums.MediaKindModel:
		ext := strings.ToLower(path.Ext(fileName))
		contentType, ok := modelContentTypes[ext]
		if !ok {
			return "", fmt.Errorf("model file extension must be one of %s", humanReadableList(modelExtensions))
		}
		if isForeignForModel(detected) {
			return "", fmt.Errorf("model file content looks like %s", detected.String())
		}
		return contentType, nil
	default:
		return "", fmt.Errorf("unsupported media kind %q", kind)
	}
}

// isForeignForModel reports content that is clearly not a 3D model, such as
// images, archives other than 3MF containers, or executables.
func isForeignForModel(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		switch {
		case strings.HasPrefix(m.String(), "image/"),
			strings.HasPrefix(m.String(), "video/"),
			strings.HasPrefix(m.String(), "audio/"),
			m.Is("application/pdf"),
			m.Is("application/x-executable"),
			m.Is("application/vnd.microsoft.portable-executable"):
			return true
		}
	}
	return false
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	case 2:
		return fmt.Sprintf("%s or %s", items[0], items[1])
	default:
		return fmt.Sprintf("%s, or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}
