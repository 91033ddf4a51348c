package extractors

import (
	"strings"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"fsminer/pkg/resource"
)

const cmsPerInch = 2.54

const exifDateLayout = "2006:01:02 15:04:05"

// applyExif maps decoded EXIF fields onto the resource. Missing fields are
// simply skipped; EXIF blocks in the wild are sparse.
func applyExif(res *resource.Resource, x *exif.Exif) {
	if x == nil {
		return
	}

	if v := exifDate(x); v != "" {
		res.SetString("nie:contentCreated", v)
	}
	if v := exifOrientation(x); v != "" {
		res.AddURI("nfo:orientation", v)
	}

	make := exifString(x, exif.Make)
	model := exifString(x, exif.Model)
	if make != "" || model != "" {
		res.SetRelation("nfo:equipment", newEquipment(make, model))
	}
	if v := exifString(x, exif.Artist); v != "" {
		res.SetRelation("nco:creator", newContact(v))
	}
	if v := exifString(x, exif.ImageDescription); v != "" {
		res.SetString("nie:description", v)
	}
	if v := exifString(x, exif.UserComment); v != "" {
		res.SetString("nie:comment", v)
	}
	if v := exifString(x, exif.Copyright); v != "" {
		res.SetString("nie:copyright", v)
	}

	if v, ok := exifRational(x, exif.FNumber); ok {
		res.SetFloat64("nmm:fnumber", v)
	}
	if v := exifFlash(x); v != "" {
		res.AddURI("nmm:flash", v)
	}
	if v, ok := exifRational(x, exif.FocalLength); ok {
		res.SetFloat64("nmm:focalLength", v)
	}
	if v, ok := exifInt(x, exif.ISOSpeedRatings); ok {
		res.SetFloat64("nmm:isoSpeed", float64(v))
	}
	if v, ok := exifRational(x, exif.ExposureTime); ok {
		res.SetFloat64("nmm:exposureTime", v)
	}
	if v := exifMeteringMode(x); v != "" {
		res.AddURI("nmm:meteringMode", v)
	}
	if v := exifWhiteBalance(x); v != "" {
		res.AddURI("nmm:whiteBalance", v)
	}

	perCM := false
	if unit, ok := exifInt(x, exif.ResolutionUnit); ok && unit == 3 {
		perCM = true
	}
	if v, ok := exifRational(x, exif.XResolution); ok {
		if perCM {
			v *= cmsPerInch
		}
		res.SetFloat64("nfo:horizontalResolution", v)
	}
	if v, ok := exifRational(x, exif.YResolution); ok {
		if perCM {
			v *= cmsPerInch
		}
		res.SetFloat64("nfo:verticalResolution", v)
	}

	applyExifLocation(res, x)
	if v, ok := exifRational(x, exif.GPSImgDirection); ok {
		res.SetFloat64("nfo:heading", v)
	}
}

func applyExifLocation(res *resource.Resource, x *exif.Exif) {
	lat, long, err := x.LatLong()
	alt, altOK := exifRational(x, exif.GPSAltitude)
	if err != nil && !altOK {
		return
	}

	geo := resource.New("")
	geo.AddType("slo:GeoLocation")
	if err == nil {
		geo.SetFloat64("slo:latitude", lat)
		geo.SetFloat64("slo:longitude", long)
	}
	if altOK {
		geo.SetFloat64("slo:altitude", alt)
	}
	res.SetRelation("slo:location", geo)
}

// newEquipment mirrors the camera-equipment resource convention: a blank
// node typed nfo:Equipment with manufacturer and model.
func newEquipment(make, model string) *resource.Resource {
	eq := resource.New("")
	eq.AddType("nfo:Equipment")
	if make != "" {
		eq.SetString("nfo:manufacturer", make)
	}
	if model != "" {
		eq.SetString("nfo:model", model)
	}
	return eq
}

// newContact builds a contact resource for a creator or artist string.
func newContact(fullname string) *resource.Resource {
	c := resource.New("")
	c.AddType("nco:Contact")
	c.SetString("nco:fullname", strings.TrimSpace(fullname))
	return c
}

func exifString(x *exif.Exif, name exif.FieldName) string {
	tag, err := x.Get(name)
	if err != nil {
		return ""
	}
	s, err := tag.StringVal()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(strings.Trim(s, "\x00"))
}

func exifInt(x *exif.Exif, name exif.FieldName) (int64, bool) {
	tag, err := x.Get(name)
	if err != nil || tag.Count == 0 {
		return 0, false
	}
	v, err := tag.Int64(0)
	if err != nil {
		return 0, false
	}
	return v, true
}

func exifRational(x *exif.Exif, name exif.FieldName) (float64, bool) {
	tag, err := x.Get(name)
	if err != nil || tag.Count == 0 {
		return 0, false
	}
	if tag.Format() == tiff.RatVal {
		num, den, err := tag.Rat2(0)
		if err != nil || den == 0 {
			return 0, false
		}
		return float64(num) / float64(den), true
	}
	if v, err := tag.Int64(0); err == nil {
		return float64(v), true
	}
	return 0, false
}

func exifDate(x *exif.Exif) string {
	for _, name := range []exif.FieldName{exif.DateTimeOriginal, exif.DateTime} {
		if v := exifString(x, name); v != "" {
			if t, err := time.Parse(exifDateLayout, v); err == nil {
				return isoDate(t)
			}
		}
	}
	return ""
}

func exifOrientation(x *exif.Exif) string {
	v, ok := exifInt(x, exif.Orientation)
	if !ok {
		return ""
	}
	switch v {
	case 1:
		return "nfo:orientation-top"
	case 2:
		return "nfo:orientation-top-mirror"
	case 3:
		return "nfo:orientation-bottom"
	case 4:
		return "nfo:orientation-bottom-mirror"
	case 5:
		return "nfo:orientation-left-mirror"
	case 6:
		return "nfo:orientation-right"
	case 7:
		return "nfo:orientation-right-mirror"
	case 8:
		return "nfo:orientation-left"
	}
	return ""
}

func exifFlash(x *exif.Exif) string {
	v, ok := exifInt(x, exif.Flash)
	if !ok {
		return ""
	}
	if v&0x01 != 0 {
		return "nmm:flash-on"
	}
	return "nmm:flash-off"
}

func exifMeteringMode(x *exif.Exif) string {
	v, ok := exifInt(x, exif.MeteringMode)
	if !ok {
		return ""
	}
	switch v {
	case 1:
		return "nmm:metering-mode-average"
	case 2:
		return "nmm:metering-mode-center-weighted-average"
	case 3:
		return "nmm:metering-mode-spot"
	case 4:
		return "nmm:metering-mode-multispot"
	case 5:
		return "nmm:metering-mode-pattern"
	case 6:
		return "nmm:metering-mode-partial"
	}
	return "nmm:metering-mode-other"
}

func exifWhiteBalance(x *exif.Exif) string {
	v, ok := exifInt(x, exif.WhiteBalance)
	if !ok {
		return ""
	}
	if v == 0 {
		return "nmm:white-balance-auto"
	}
	return "nmm:white-balance-manual"
}
