package model

import (
	"github.com/Faultbox/midgard-modelbake/pkg/formats"
	"github.com/Faultbox/midgard-modelbake/pkg/math"
)

// nodeMatrix returns the transform applied to a node's vertices at timeMs.
// The hierarchy part (position, rotation, scale) is inherited by children;
// the pivot offset and the 3x3 node matrix apply to this node only.
func nodeMatrix(node *formats.RSMNode, rsm *formats.RSM, timeMs float32) math.Mat4 {
	m := hierarchyMatrix(node, rsm, timeMs, make(map[string]bool))
	m = m.Mul(math.Translate(node.Offset[0], node.Offset[1], node.Offset[2]))
	return m.Mul(math.FromMat3x3(node.Matrix))
}

func hierarchyMatrix(node *formats.RSMNode, rsm *formats.RSM, timeMs float32, visited map[string]bool) math.Mat4 {
	if visited[node.Name] {
		return math.Identity()
	}
	visited[node.Name] = true

	local := math.Translate(node.Position[0], node.Position[1], node.Position[2])
	switch {
	case len(node.RotKeys) > 0:
		local = local.Mul(rotationAt(node.RotKeys, timeMs).ToMat4())
	case node.RotAngle != 0 && math.Length(node.RotAxis) > 1e-6:
		local = local.Mul(math.RotateAxis(math.Normalize(node.RotAxis), node.RotAngle))
	}
	local = local.Mul(math.Scale(node.Scale[0], node.Scale[1], node.Scale[2]))
	if len(node.ScaleKeys) > 0 {
		s := scaleAt(node.ScaleKeys, timeMs)
		local = local.Mul(math.Scale(s[0], s[1], s[2]))
	}

	if node.Parent == "" || node.Parent == node.Name {
		return local
	}
	parent := rsm.GetNodeByName(node.Parent)
	if parent == nil {
		return local
	}
	return hierarchyMatrix(parent, rsm, timeMs, visited).Mul(local)
}

// keySpan finds the keyframes around timeMs and the blend factor between
// them. frames must be sorted.
func keySpan(frames []int32, timeMs float32) (prev, next int, t float32) {
	for i, f := range frames {
		if float32(f) > timeMs {
			next = i
			break
		}
		prev, next = i, i
	}
	if prev != next && frames[next] != frames[prev] {
		t = (timeMs - float32(frames[prev])) / float32(frames[next]-frames[prev])
	}
	return prev, next, t
}

func rotationAt(keys []formats.RSMRotKeyframe, timeMs float32) math.Quat {
	frames := make([]int32, len(keys))
	for i, k := range keys {
		frames[i] = k.Frame
	}
	prev, next, t := keySpan(frames, timeMs)
	q0 := quatOf(keys[prev])
	if prev == next {
		return q0
	}
	return q0.Slerp(quatOf(keys[next]), t)
}

func quatOf(k formats.RSMRotKeyframe) math.Quat {
	return math.Quat{X: k.Quaternion[0], Y: k.Quaternion[1], Z: k.Quaternion[2], W: k.Quaternion[3]}
}

func scaleAt(keys []formats.RSMScaleKeyframe, timeMs float32) [3]float32 {
	frames := make([]int32, len(keys))
	for i, k := range keys {
		frames[i] = k.Frame
	}
	prev, next, t := keySpan(frames, timeMs)
	if prev == next {
		return keys[prev].Scale
	}
	return math.LerpVec3(keys[prev].Scale, keys[next].Scale, t)
}
