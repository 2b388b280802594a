package model

import (
	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
)

// MissingModelID names the model that stands in for anything unresolvable.
var MissingModelID = modelid.MustParse("builtin/missing")

var missingModel = newMissingModel()

// MissingModel returns the shared stand-in: a full cube textured with the
// missing sprite on every face.
func MissingModel() *BlockModel {
	return missingModel
}

func newMissingModel() *BlockModel {
	faces := make(map[Direction]ElementFace, len(AllDirections))
	for _, d := range AllDirections {
		faces[d] = ElementFace{Texture: "#missingno", TintIndex: -1}
	}
	return &BlockModel{
		Name: MissingModelID.String(),
		Textures: map[string]string{
			"missingno": texture.MissingID.String(),
			"particle":  "#missingno",
		},
		Elements: []Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{16, 16, 16},
			Faces: faces,
			Shade: true,
		}},
	}
}
