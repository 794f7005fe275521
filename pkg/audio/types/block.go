package types

import (
	"fmt"
)

// Block is one callback-worth of raw samples in the stream's native format.
// Exactly one of the slices (the one matching Format) is set; the samples
// are interleaved if the stream has more than one channel.
//
// The slices alias buffers owned by the backend and are valid only for the
// duration of the callback invocation.
type Block struct {
	Format PCMFormat
	U8     []uint8
	S16    []int16
	S32    []int32
	F32    []float32
	F64    []float64
}

// Len returns the amount of samples in the block (counting every channel).
func (b Block) Len() int {
	switch b.Format {
	case PCMFormatU8:
		return len(b.U8)
	case PCMFormatS16LE:
		return len(b.S16)
	case PCMFormatS32LE:
		return len(b.S32)
	case PCMFormatFloat32LE:
		return len(b.F32)
	case PCMFormatFloat64LE:
		return len(b.F64)
	}
	panic(fmt.Errorf("unexpected format: %v", b.Format))
}
