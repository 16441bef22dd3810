package shaderscene

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/shaderscene/internal/linear"
)

// Uniform block layout shared by both shader stages:
//
//	struct Uniforms {
//	    view_proj:  mat4x4<f32>, // 0
//	    model:      mat4x4<f32>, // 64
//	    color:      vec4<f32>,   // 128
//	    resolution: vec2<f32>,   // 144
//	    time:       f32,         // 152
//	}
const (
	uniformViewProjOffset   = 0
	uniformModelOffset      = 64
	uniformColorOffset      = 128
	uniformResolutionOffset = 144
	uniformTimeOffset       = 152

	// UniformBlockSize is the uniform buffer size, rounded to 16 bytes.
	UniformBlockSize = 160
)

// uniformBlock is the CPU copy of the uniform buffer contents.
type uniformBlock struct {
	viewProj   linear.M4
	model      linear.M4
	color      [4]float32
	resolution [2]float32
	time       float32
}

// bytes packs the block in its GPU layout.
func (u *uniformBlock) bytes() []byte {
	buf := make([]byte, UniformBlockSize)
	putMat4(buf[uniformViewProjOffset:], &u.viewProj)
	putMat4(buf[uniformModelOffset:], &u.model)
	putFloats(buf[uniformColorOffset:], u.color[:])
	putFloats(buf[uniformResolutionOffset:], u.resolution[:])
	putFloats(buf[uniformTimeOffset:], []float32{u.time})
	return buf
}

func putMat4(dst []byte, m *linear.M4) {
	for c := range m {
		putFloats(dst[c*16:], m[c][:])
	}
}

func putFloats(dst []byte, fs []float32) {
	for i, f := range fs {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(f))
	}
}

// timeBytes encodes seconds as the 4-byte time field.
func timeBytes(seconds float32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], math.Float32bits(seconds))
	return b[:]
}
