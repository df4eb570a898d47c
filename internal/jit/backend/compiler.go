package backend

import (
	"fmt"

	"github.com/docker/go-units"

	"github.com/thumbjit/thumbjit/internal/jit/backend/regalloc"
	"github.com/thumbjit/thumbjit/internal/jit/jitapi"
)

// CompiledMethod is the output of Compile.
type CompiledMethod struct {
	// Code is the machine code followed by the literal pool, switch tables
	// and fill-array data.
	Code []byte
	// CodeSize is the size of the instructions at the head of Code.
	CodeSize uint32

	FrameSize     uint32
	CoreSpillMask uint32
	FPSpillMask   uint32

	// MappingTable maps native pcs to bytecode offsets and back, see EncodeMappingTable.
	MappingTable []byte
	// VMapTable lists the promoted virtual registers, see EncodeVMapTable.
	VMapTable []byte
	// GCMap lists the references live at each safepoint, see EncodeGCMap.
	GCMap []byte
}

// Compile runs the backend pipeline over the LIR held by m:
// local optimizations, promotion, frame setup, assembly, then metadata.
//
// uses are the weighted use counts of the virtual registers, only read when
// promotion is enabled and m has not been promoted yet.
func Compile(m Machine, cfg *Config, uses []regalloc.UseCount) *CompiledMethod {
	if cfg.LoadStoreElimination() || cfg.LoadHoisting() {
		m.ApplyLocalOptimizations(cfg.LoadStoreElimination(), cfg.LoadHoisting())
	}

	promotion := m.Promotion()
	if promotion == nil {
		if !cfg.Promotion() {
			uses = nil
		}
		promotion = m.DoPromotion(uses)
	}

	m.SetupFrame()

	if jitapi.PrintLIR {
		fmt.Printf("[[[LIR for method]]]\n%s\n", m.Format())
	}

	code, codeSize := m.Assemble()
	safepoints := m.Safepoints()

	ret := &CompiledMethod{
		Code:          code,
		CodeSize:      codeSize,
		FrameSize:     m.FrameSize(),
		CoreSpillMask: promotion.CoreSpillMask,
		FPSpillMask:   promotion.FPSpillMask,
		MappingTable:  EncodeMappingTable(safepoints, m.ExportedPCs()),
		VMapTable:     EncodeVMapTable(promotion),
		GCMap:         EncodeGCMap(safepoints),
	}

	if jitapi.PrintAssemblyStats {
		fmt.Println(ret)
	}
	return ret
}

// String summarizes the sizes of the code and of its metadata.
func (c *CompiledMethod) String() string {
	return fmt.Sprintf("code %s, data %s, frame %s, mapping table %s, vmap %s, gc map %s",
		units.BytesSize(float64(c.CodeSize)),
		units.BytesSize(float64(len(c.Code)-int(c.CodeSize))),
		units.BytesSize(float64(c.FrameSize)),
		units.BytesSize(float64(len(c.MappingTable))),
		units.BytesSize(float64(len(c.VMapTable))),
		units.BytesSize(float64(len(c.GCMap))),
	)
}
