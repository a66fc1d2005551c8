package job

import "strings"

// Format is an output audio format accepted by the service.
type Format string

const (
	FormatMP3  = Format("mp3")
	FormatM4A  = Format("m4a")
	FormatWAV  = Format("wav")
	FormatOpus = Format("opus")
)

// Quality is an output bitrate in kbps accepted by the service.
type Quality string

const (
	QualityLow    = Quality("128")
	QualityMedium = Quality("192")
	QualityHigh   = Quality("256")
	QualityBest   = Quality("320")
)

// ParseFormat normalizes s to a known format, falling back to mp3 the
// same way the service does on its upload form.
func ParseFormat(s string) Format {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatMP3, FormatM4A, FormatWAV, FormatOpus:
		return f
	}
	return FormatMP3
}

// ParseQuality normalizes s to a known quality, falling back to 192.
func ParseQuality(s string) Quality {
	switch q := Quality(strings.TrimSpace(s)); q {
	case QualityLow, QualityMedium, QualityHigh, QualityBest:
		return q
	}
	return QualityMedium
}

// ContentType returns the mime type the service serves for f.
func (f Format) ContentType() string {
	switch f {
	case FormatM4A:
		return "audio/mp4"
	case FormatWAV:
		return "audio/wav"
	case FormatOpus:
		return "audio/opus"
	}
	return "audio/mpeg"
}
