package formats

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/midgard-modelbake/pkg/encoding"
)

// WriteRSMFile encodes rsm to path, replacing any existing file.
func WriteRSMFile(path string, rsm *RSM) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating RSM file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing RSM file: %w", cerr)
		}
	}()
	return rsm.Encode(f)
}

// Encode writes rsm in the layout ParseRSM reads for rsm.Version.
// Names are written EUC-KR encoded and truncated to 40 bytes.
func (rsm *RSM) Encode(w io.Writer) error {
	if rsm.Version.Major < 1 || rsm.Version.Major > 2 {
		return fmt.Errorf("%w: %s", ErrUnsupportedRSMVersion, rsm.Version)
	}

	bw := bufio.NewWriter(w)
	e := &rsmWriter{w: bw}

	e.raw([]byte(rsmMagic))
	e.put(rsm.Version.Major)
	e.put(rsm.Version.Minor)
	e.put(rsm.AnimLength)
	e.put(rsm.Shading)
	if rsm.Version.AtLeast(1, 4) {
		e.put(uint8(rsm.Alpha*255 + 0.5))
	}
	e.raw(make([]byte, 16))

	e.put(int32(len(rsm.Textures)))
	for _, tex := range rsm.Textures {
		e.name(tex)
	}
	e.name(rsm.RootNode)

	e.put(int32(len(rsm.Nodes)))
	for i := range rsm.Nodes {
		e.node(rsm.Version, &rsm.Nodes[i])
	}

	e.put(int32(len(rsm.VolumeBoxes)))
	for _, box := range rsm.VolumeBoxes {
		e.put(box.Size)
		e.put(box.Position)
		e.put(box.Rotation)
		if rsm.Version.AtLeast(1, 3) {
			e.put(box.Flag)
		}
	}

	if e.err != nil {
		return e.err
	}
	return bw.Flush()
}

type rsmWriter struct {
	w   io.Writer
	err error
}

func (e *rsmWriter) put(v any) {
	if e.err == nil {
		e.err = binary.Write(e.w, binary.LittleEndian, v)
	}
}

func (e *rsmWriter) raw(b []byte) {
	if e.err == nil {
		_, e.err = e.w.Write(b)
	}
}

func (e *rsmWriter) name(s string) {
	buf := make([]byte, rsmNameLength)
	copy(buf[:rsmNameLength-1], encoding.UTF8ToEUCKR(s))
	e.raw(buf)
}

func (e *rsmWriter) node(version RSMVersion, node *RSMNode) {
	e.name(node.Name)
	e.name(node.Parent)

	e.put(int32(len(node.TextureIDs)))
	e.put(node.TextureIDs)

	e.put(node.Matrix)
	e.put(node.Offset)
	e.put(node.Position)
	e.put(node.RotAngle)
	e.put(node.RotAxis)
	e.put(node.Scale)

	e.put(int32(len(node.Vertices)))
	e.put(node.Vertices)

	e.put(int32(len(node.TexCoords)))
	for _, tc := range node.TexCoords {
		if version.AtLeast(1, 2) {
			e.put(tc.Color)
		}
		e.put(tc.U)
		e.put(tc.V)
	}

	e.put(int32(len(node.Faces)))
	for _, f := range node.Faces {
		e.put(f.VertexIDs)
		e.put(f.TexCoordIDs)
		e.put(f.TextureID)
		e.put(f.Padding)
		e.put(f.TwoSide)
		if version.AtLeast(1, 2) {
			e.put(f.SmoothGroup)
		}
	}

	if !version.AtLeast(1, 5) {
		e.put(int32(len(node.PosKeys)))
		e.put(node.PosKeys)
	}
	e.put(int32(len(node.RotKeys)))
	e.put(node.RotKeys)
	if version.AtLeast(1, 5) {
		e.put(int32(len(node.ScaleKeys)))
		e.put(node.ScaleKeys)
	}
}
