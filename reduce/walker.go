package reduce

import (
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// imageRef identifies one image XObject entry found on a page, together with
// the attributes the policy needs. The same underlying stream object may be
// referenced from several entries; ref carries the identity used to
// de-duplicate work.
type imageRef struct {
	pageIndex int    // 0-based
	name      string // key within the page's XObject dictionary
	ref       *types.IndirectRef
	sd        types.StreamDict
	xObjects  types.Dict // dictionary holding the entry, for write-back

	width, height  int
	bpc            int
	filter         string
	colorSpace     string
	hasDecodeParms bool
}

// objectNumber returns the stream's identity, or 0 for direct streams.
func (r *imageRef) objectNumber() int {
	if r.ref == nil {
		return 0
	}
	return r.ref.ObjectNumber.Value()
}

// collectImages enumerates every image XObject entry across all pages, in
// page order with names sorted within a page. Pages without resources or
// XObjects are skipped, as is any entry that is not an image stream or that
// fails type inspection. Enumeration has no side effects.
func collectImages(ctx *model.Context) []imageRef {
	var images []imageRef
	for i := 0; i < ctx.PageCount; i++ {
		xObjects := pageXObjects(ctx, i+1)
		if xObjects == nil {
			continue
		}
		for _, name := range sortedKeys(xObjects) {
			ir, sd, ok := resolveImageStream(ctx, xObjects[name])
			if !ok {
				continue
			}
			ref := imageRef{
				pageIndex: i,
				name:      name,
				ref:       ir,
				sd:        *sd,
				xObjects:  xObjects,
			}
			readImageAttrs(ctx, sd, &ref)
			images = append(images, ref)
		}
	}
	return images
}

// pageXObjects returns the XObject dictionary of a page (1-based), or nil if
// the page has no resources or no XObjects.
func pageXObjects(ctx *model.Context, pageNr int) types.Dict {
	pageDict, _, _, err := ctx.PageDict(pageNr, false)
	if err != nil || pageDict == nil {
		return nil
	}
	obj, found := pageDict.Find("Resources")
	if !found {
		return nil
	}
	resources, err := ctx.DereferenceDict(obj)
	if err != nil || resources == nil {
		return nil
	}
	obj, found = resources.Find("XObject")
	if !found {
		return nil
	}
	xObjects, err := ctx.DereferenceDict(obj)
	if err != nil {
		return nil
	}
	return xObjects
}

// resolveImageStream dereferences an XObject entry and reports whether it is
// an image stream. Form XObjects and malformed entries are excluded.
func resolveImageStream(ctx *model.Context, obj types.Object) (*types.IndirectRef, *types.StreamDict, bool) {
	var ir *types.IndirectRef
	if r, ok := obj.(types.IndirectRef); ok {
		ir = &r
	} else if _, ok := obj.(types.StreamDict); !ok {
		return nil, nil, false
	}
	sd, _, err := ctx.DereferenceStreamDict(obj)
	if err != nil || sd == nil {
		return nil, nil, false
	}
	if subtype := sd.Subtype(); subtype == nil || *subtype != "Image" {
		return nil, nil, false
	}
	return ir, sd, true
}

// readImageAttrs fills the declared geometry and encoding of an image stream.
func readImageAttrs(ctx *model.Context, sd *types.StreamDict, ref *imageRef) {
	ref.width = derefInt(ctx, sd.Dict, "Width")
	ref.height = derefInt(ctx, sd.Dict, "Height")
	ref.bpc = derefInt(ctx, sd.Dict, "BitsPerComponent")
	if ref.bpc == 0 {
		ref.bpc = 8
	}
	if len(sd.FilterPipeline) == 1 {
		ref.filter = sd.FilterPipeline[0].Name
		ref.hasDecodeParms = sd.FilterPipeline[0].DecodeParms != nil
	}
	if _, found := sd.Find("DecodeParms"); found {
		ref.hasDecodeParms = true
	}
	ref.colorSpace = derefName(ctx, sd.Dict, "ColorSpace")
}

func derefInt(ctx *model.Context, d types.Dict, key string) int {
	obj, found := d.Find(key)
	if !found {
		return 0
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return 0
	}
	if i, ok := obj.(types.Integer); ok {
		return i.Value()
	}
	return 0
}

// derefName resolves a dictionary entry to a name. Non-name values (e.g.
// array-based color spaces) come back empty, which the codec rejects.
func derefName(ctx *model.Context, d types.Dict, key string) string {
	obj, found := d.Find(key)
	if !found {
		return ""
	}
	obj, err := ctx.Dereference(obj)
	if err != nil {
		return ""
	}
	if n, ok := obj.(types.Name); ok {
		return n.Value()
	}
	return ""
}

func sortedKeys(d types.Dict) []string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
