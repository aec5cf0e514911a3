package reduce

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// applyReplacement overwrites an image stream with a JPEG payload and makes
// the dictionary consistent with it: DCTDecode filter, 8 bits per component,
// DeviceGray or DeviceRGB color, new dimensions. Decode parameters and soft
// masks describe the old payload and are dropped; their absence is fine.
func applyReplacement(ctx *model.Context, ref *imageRef, res Result) error {
	sd := ref.sd
	length := int64(len(res.Data))
	sd.Raw = res.Data
	sd.Content = nil
	sd.StreamLength = &length
	sd.FilterPipeline = []types.PDFFilter{{Name: filterDCT}}

	d := sd.Dict
	d["Filter"] = types.Name(filterDCT)
	d["Length"] = types.Integer(length)
	d["Width"] = types.Integer(res.Width)
	d["Height"] = types.Integer(res.Height)
	d["BitsPerComponent"] = types.Integer(8)
	if res.Gray {
		d["ColorSpace"] = types.Name("DeviceGray")
	} else {
		d["ColorSpace"] = types.Name("DeviceRGB")
	}
	d.Delete("DecodeParms")
	d.Delete("SMask")

	// The dictionary is shared with the stored object, the stream fields
	// are not; write the whole stream dict back.
	if ref.ref != nil {
		entry, ok := ctx.FindTableEntryForIndRef(ref.ref)
		if !ok {
			return fmt.Errorf("no xref entry for object %d", ref.objectNumber())
		}
		entry.Object = sd
		return nil
	}
	ref.xObjects[ref.name] = sd
	return nil
}

// applyRemoval deletes one entry from a page's XObject dictionary, leaving
// every other resource untouched.
func applyRemoval(xObjects types.Dict, name string) {
	xObjects.Delete(name)
}

// imageEntryNames returns the sorted names of the image entries in an
// XObject dictionary.
func imageEntryNames(ctx *model.Context, xObjects types.Dict) []string {
	var names []string
	for _, name := range sortedKeys(xObjects) {
		if _, _, ok := resolveImageStream(ctx, xObjects[name]); ok {
			names = append(names, name)
		}
	}
	return names
}

// stripMetadata removes the document's XMP metadata and the legacy Info
// dictionary from the trailer. Missing entries are a no-op.
func stripMetadata(ctx *model.Context) {
	ctx.Info = nil
	if rootDict, err := ctx.Catalog(); err == nil && rootDict != nil {
		rootDict.Delete("Metadata")
	}
}
