package component

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/jakecoffman/cp"
)

// Block is one destructible element of a structure, in world space.
type Block struct {
	Center    mgl64.Vec3
	Half      mgl64.Vec3
	Integrity float64
	Shape     *cp.Shape
}

func (b Block) Alive() bool {
	return b.Integrity > 0
}

// Contains reports whether p lies inside the block, padded by eps.
func (b Block) Contains(p mgl64.Vec3, eps float64) bool {
	for i := 0; i < 3; i++ {
		if p[i] < b.Center[i]-b.Half[i]-eps || p[i] > b.Center[i]+b.Half[i]+eps {
			return false
		}
	}
	return true
}

// Structure is a composite of blocks. It is destroyed with its last block.
type Structure struct {
	Blocks         []Block
	Indestructible bool
}

// LiveBlocks counts blocks with integrity left.
func (s *Structure) LiveBlocks() int {
	n := 0
	for _, b := range s.Blocks {
		if b.Alive() {
			n++
		}
	}
	return n
}

var StructureComponent = NewComponent[Structure]()
