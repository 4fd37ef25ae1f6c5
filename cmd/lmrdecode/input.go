package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pd0mz/go-lmr/bit"
	"github.com/pd0mz/go-lmr/config"
)

const readSize = 4096

// unpack converts raw input in the given format to bits.
func unpack(format string, data []byte) (bit.Bits, error) {
	switch format {
	case config.FormatBits:
		bits := make(bit.Bits, 0, len(data))
		for _, c := range data {
			switch c {
			case '0':
				bits = append(bits, 0)
			case '1':
				bits = append(bits, 1)
			}
		}
		return bits, nil
	case config.FormatPacked:
		return bit.NewBits(data), nil
	case config.FormatDibits:
		symbols := make(bit.Dibits, len(data))
		for i, c := range data {
			symbols[i] = bit.Dibit(c & 0x03)
		}
		return symbols.Bits(), nil
	default:
		return nil, fmt.Errorf("unknown input format %q", format)
	}
}

// openInput opens a file, or standard input for "-".
func openInput(name string) (io.ReadCloser, error) {
	if name == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(name)
}

// feed reads r until EOF or until the context is done, pushing the unpacked bits.
func feed(ctx context.Context, r io.Reader, format string, push func(bit.Bits)) error {
	if _, err := unpack(format, nil); err != nil {
		return err
	}
	buf := make([]byte, readSize)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := r.Read(buf)
		if n > 0 {
			bits, _ := unpack(format, buf[:n])
			push(bits)
		}
		if errors.Is(err, io.EOF) {
			return nil
		} else if err != nil {
			return err
		}
	}
}
