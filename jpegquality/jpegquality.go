// Package jpegquality estimates the quality setting a JPEG image was encoded
// with by inverting the scaling applied to its quantization tables.
package jpegquality

import (
	"bytes"
	"errors"
	"io"
)

var (
	ErrInvalidJPEG  = errors.New("invalid JPEG header")
	ErrWrongTable   = errors.New("wrong size for quantization table")
	ErrShortSegment = errors.New("short segment length")
	ErrShortDQT     = errors.New("section DQT is too short")

	errNoDQT = errors.New("no quantization table before start of scan")
)

const (
	markerSOI = 0xffd8
	markerEOI = 0xffd9
	markerSOS = 0xffda
	markerDQT = 0xffdb
)

// Unscaled IJG reference tables. Baseline encoders derive their tables from
// these, so comparing coefficient sums against them recovers the scale
// factor and with it the quality setting. Sums are order invariant, zigzag
// storage in the DQT segment does not matter.
var stdLuminance = [64]int{
	16, 11, 10, 16, 24, 40, 51, 61,
	12, 12, 14, 19, 26, 58, 60, 55,
	14, 13, 16, 24, 40, 57, 69, 56,
	14, 17, 22, 29, 51, 87, 80, 62,
	18, 22, 37, 56, 68, 109, 103, 77,
	24, 35, 55, 64, 81, 104, 113, 92,
	49, 64, 78, 87, 103, 121, 120, 101,
	72, 92, 95, 98, 112, 100, 103, 99,
}

var stdChrominance = [64]int{
	17, 18, 24, 47, 99, 99, 99, 99,
	18, 21, 26, 66, 99, 99, 99, 99,
	24, 26, 56, 99, 99, 99, 99, 99,
	47, 66, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
	99, 99, 99, 99, 99, 99, 99, 99,
}

type jpegReader struct {
	rs      io.ReadSeeker
	quality int
}

// New scans the JPEG stream for its quantization tables and derives the
// encoder quality. The reader is rewound before scanning.
func New(rs io.ReadSeeker) (*jpegReader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	jr := &jpegReader{rs: rs}
	if jr.readMarker() != markerSOI {
		return nil, ErrInvalidJPEG
	}
	if err := jr.scan(); err != nil {
		return nil, err
	}
	return jr, nil
}

// NewWithBytes is New over an in-memory image.
func NewWithBytes(data []byte) (*jpegReader, error) {
	return New(bytes.NewReader(data))
}

// Quality returns the estimated encoder quality in the 1..100 range.
func (jr *jpegReader) Quality() int {
	return jr.quality
}

func (jr *jpegReader) readMarker() int {
	var buf [2]byte
	if _, err := io.ReadFull(jr.rs, buf[:]); err != nil {
		return 0
	}
	return int(buf[0])<<8 | int(buf[1])
}

func (jr *jpegReader) scan() error {
	for {
		marker := jr.readMarker()
		switch {
		case marker == 0:
			return errNoDQT
		case marker == markerEOI, marker == markerSOS:
			if jr.quality == 0 {
				return errNoDQT
			}
			return nil
		case marker>>8 != 0xff:
			return ErrInvalidJPEG
		}

		length := jr.readMarker()
		if length < 2 {
			return ErrShortSegment
		}
		payload := make([]byte, length-2)
		if _, err := io.ReadFull(jr.rs, payload); err != nil {
			return err
		}
		if marker != markerDQT {
			continue
		}
		if err := jr.readDQT(payload); err != nil {
			return err
		}
		if jr.quality > 0 {
			return nil
		}
	}
}

func (jr *jpegReader) readDQT(payload []byte) error {
	offset := 0
	for offset < len(payload) {
		precision := int(payload[offset] >> 4)
		index := int(payload[offset] & 0x0f)
		offset++
		if precision > 1 || index > 3 {
			return ErrWrongTable
		}
		width := precision + 1
		if len(payload)-offset < 64*width {
			return ErrShortDQT
		}

		var table [64]int
		for i := range 64 {
			v := int(payload[offset])
			if width == 2 {
				v = v<<8 | int(payload[offset+1])
			}
			table[i] = v
			offset += width
		}
		// Estimate from the luminance table, it is written first by
		// baseline encoders.
		if jr.quality == 0 {
			std := stdLuminance
			if index != 0 {
				std = stdChrominance
			}
			jr.quality = estimateQuality(table, std)
		}
	}
	return nil
}

func estimateQuality(table, std [64]int) int {
	sumT, sumS := 0, 0
	for i := range 64 {
		sumT += table[i]
		sumS += std[i]
	}
	scale := (sumT*100 + sumS/2) / sumS
	if scale < 1 {
		scale = 1
	}

	var q int
	if scale <= 100 {
		q = (200 - scale) / 2
	} else {
		q = 5000 / scale
	}
	if q < 1 {
		q = 1
	}
	if q > 100 {
		q = 100
	}
	return q
}
