package wasm

// FuncType is a WASM function signature: value types in, value types out.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

func (t FuncType) key() string {
	out := make([]byte, 0, len(t.Params)+len(t.Results)+1)
	for _, p := range t.Params {
		out = append(out, byte(p))
	}
	out = append(out, '|')
	for _, r := range t.Results {
		out = append(out, byte(r))
	}
	return string(out)
}

// Import is a host function this module expects to be linked against —
// the Target's builtin catalog (set_storage, get_storage, seal_call, ...).
type Import struct {
	Module string
	Name   string
	Type   FuncType
}

// Function is one defined, exported function body: already-encoded
// instruction bytes plus the local slots the body references beyond its
// own parameters.
type Function struct {
	Name   string
	Type   FuncType
	Locals []ValType
	Body   []byte
}

// DataSegment is an active chunk of initial linear-memory contents, copied
// to Offset at instantiation; used for string/bytes literals and
// failure-reason strings.
type DataSegment struct {
	Offset int
	Bytes  []byte
}

// Module is the in-memory model internal/codegen builds per contract;
// Encode serializes it to the WebAssembly binary format.
type Module struct {
	Imports     []Import
	Functions   []Function
	Data        []DataSegment
	MemoryPages uint32
}

// FuncIndex returns the function index space position of the
// n-th defined function (imports occupy the low indices first, per the
// WASM function index space rule).
func (m *Module) FuncIndex(definedIdx int) int {
	return len(m.Imports) + definedIdx
}

// Encode serializes the module to a complete WASM binary.
func (m *Module) Encode() []byte {
	typeCache := map[string]int{}
	var types []FuncType
	typeIndex := func(t FuncType) int {
		k := t.key()
		if idx, ok := typeCache[k]; ok {
			return idx
		}
		idx := len(types)
		types = append(types, t)
		typeCache[k] = idx
		return idx
	}

	importTypeIdx := make([]int, len(m.Imports))
	for i, imp := range m.Imports {
		importTypeIdx[i] = typeIndex(imp.Type)
	}
	funcTypeIdx := make([]int, len(m.Functions))
	for i, fn := range m.Functions {
		funcTypeIdx[i] = typeIndex(fn.Type)
	}

	out := append([]byte{}, magic...)
	out = append(out, version...)
	out = append(out, encodeTypeSection(types)...)
	if len(m.Imports) > 0 {
		out = append(out, encodeImportSection(m.Imports, importTypeIdx)...)
	}
	out = append(out, encodeFunctionSection(funcTypeIdx)...)
	pages := m.MemoryPages
	if pages == 0 {
		pages = 1
	}
	out = append(out, encodeMemorySection(pages)...)
	out = append(out, encodeExportSection(m)...)
	out = append(out, encodeCodeSection(m.Functions)...)
	if len(m.Data) > 0 {
		out = append(out, encodeDataSection(m.Data)...)
	}
	return out
}

func encodeTypeSection(types []FuncType) []byte {
	var contents []byte
	for _, t := range types {
		contents = append(contents, 0x60)
		contents = append(contents, encVec(len(t.Params), valBytes(t.Params))...)
		contents = append(contents, encVec(len(t.Results), valBytes(t.Results))...)
	}
	return encSection(secType, encVec(len(types), contents))
}

func valBytes(vs []ValType) []byte {
	out := make([]byte, len(vs))
	for i, v := range vs {
		out[i] = byte(v)
	}
	return out
}

func encodeImportSection(imports []Import, typeIdx []int) []byte {
	var contents []byte
	for i, imp := range imports {
		contents = append(contents, encStr(imp.Module)...)
		contents = append(contents, encStr(imp.Name)...)
		contents = append(contents, externFunc)
		contents = append(contents, leb128U(uint64(typeIdx[i]))...)
	}
	return encSection(secImport, encVec(len(imports), contents))
}

func encodeFunctionSection(typeIdx []int) []byte {
	var contents []byte
	for _, idx := range typeIdx {
		contents = append(contents, leb128U(uint64(idx))...)
	}
	return encSection(secFunction, encVec(len(typeIdx), contents))
}

func encodeMemorySection(pages uint32) []byte {
	contents := []byte{0x00}
	contents = append(contents, leb128U(uint64(pages))...)
	return encSection(secMemory, encVec(1, contents))
}

func encodeExportSection(m *Module) []byte {
	var contents []byte
	for i, fn := range m.Functions {
		contents = append(contents, encStr(fn.Name)...)
		contents = append(contents, exportKindFunc)
		contents = append(contents, leb128U(uint64(m.FuncIndex(i)))...)
	}
	contents = append(contents, encStr("memory")...)
	contents = append(contents, exportKindMemory)
	contents = append(contents, leb128U(0)...)
	return encSection(secExport, encVec(len(m.Functions)+1, contents))
}

func encodeCodeSection(fns []Function) []byte {
	var contents []byte
	for _, fn := range fns {
		body := encodeLocalsDecl(fn.Locals)
		body = append(body, fn.Body...)
		contents = append(contents, leb128U(uint64(len(body)))...)
		contents = append(contents, body...)
	}
	return encSection(secCode, encVec(len(fns), contents))
}

func encodeLocalsDecl(locals []ValType) []byte {
	if len(locals) == 0 {
		return leb128U(0)
	}
	type run struct {
		count int
		vtype ValType
	}
	var runs []run
	cur := run{count: 1, vtype: locals[0]}
	for _, v := range locals[1:] {
		if v == cur.vtype {
			cur.count++
			continue
		}
		runs = append(runs, cur)
		cur = run{count: 1, vtype: v}
	}
	runs = append(runs, cur)
	out := leb128U(uint64(len(runs)))
	for _, r := range runs {
		out = append(out, leb128U(uint64(r.count))...)
		out = append(out, byte(r.vtype))
	}
	return out
}

func encodeDataSection(segs []DataSegment) []byte {
	var contents []byte
	for _, seg := range segs {
		contents = append(contents, 0x00)
		contents = append(contents, opI32Const)
		contents = append(contents, leb128S(int64(seg.Offset))...)
		contents = append(contents, opEnd)
		contents = append(contents, leb128U(uint64(len(seg.Bytes)))...)
		contents = append(contents, seg.Bytes...)
	}
	return encSection(secData, encVec(len(segs), contents))
}
