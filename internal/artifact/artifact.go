// Package artifact encodes one compiled contract's wasm module together
// with the metadata a deployer needs (ABI, storage layout, source and
// module hashes) into a single self-describing binary blob, and decodes
// that blob back. The format and its encode/decode pair are grounded on
// the teacher repo's .toc artifact (tol_toc.go): a fixed magic, a version
// field, length-prefixed payload sections, and a hash check on decode.
package artifact

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mickey951112/solang/internal/codegen"
	"golang.org/x/crypto/sha3"
)

var magic = [4]byte{'S', 'W', 'A', 0}

// FormatVersion is the binary artifact format version.
const FormatVersion uint16 = 1

// CompilerVersion tags the Compiler field of every artifact this package
// encodes; it has no bearing on the format version above, which only
// changes when the binary layout itself changes.
const CompilerVersion = "solang/0.1.0"

// Artifact is a decoded build output: one contract's wasm bytes plus the
// JSON metadata describing its ABI and storage layout.
type Artifact struct {
	Version           uint16
	Compiler          string
	ContractName      string
	Target            string
	Module            []byte // encoded wasm binary
	ABIJSON           []byte
	StorageLayoutJSON []byte
	SourceHash        string // 0x-prefixed keccak256 of the compiled source
	ModuleHash        string // 0x-prefixed keccak256 of Module
}

// IsArtifact reports whether data starts with this format's magic bytes.
func IsArtifact(data []byte) bool {
	if len(data) < len(magic) {
		return false
	}
	for i := range magic {
		if data[i] != magic[i] {
			return false
		}
	}
	return true
}

// Build assembles the Artifact for one codegen.Artifact: it encodes the
// wasm module, renders Dispatch and Layout into the ABI/storage-layout
// JSON blobs a deployer reads without needing this repo's own types, and
// hashes both source and module bytes for VerifySourceHash's later use.
func Build(ca *codegen.Artifact, tgtName string, source []byte) (*Artifact, error) {
	if ca == nil {
		return nil, fmt.Errorf("nil codegen artifact")
	}
	moduleBytes := ca.Module.Encode()

	abiJSON, err := encodeABI(ca)
	if err != nil {
		return nil, fmt.Errorf("encode abi: %w", err)
	}
	storageJSON, err := encodeStorageLayout(ca.Layout)
	if err != nil {
		return nil, fmt.Errorf("encode storage layout: %w", err)
	}

	return &Artifact{
		Version:           FormatVersion,
		Compiler:          CompilerVersion,
		ContractName:      ca.ContractName,
		Target:            tgtName,
		Module:            moduleBytes,
		ABIJSON:           abiJSON,
		StorageLayoutJSON: storageJSON,
		SourceHash:        keccak256Hex(source),
		ModuleHash:        keccak256Hex(moduleBytes),
	}, nil
}

// Encode serializes a into deterministic binary bytes.
func Encode(a *Artifact) ([]byte, error) {
	if a == nil {
		return nil, fmt.Errorf("nil artifact")
	}
	if strings.TrimSpace(a.ContractName) == "" {
		return nil, fmt.Errorf("artifact contract name is required")
	}
	if len(a.Module) == 0 {
		return nil, fmt.Errorf("artifact module is required")
	}
	version := a.Version
	if version == 0 {
		version = FormatVersion
	}
	compiler := a.Compiler
	if compiler == "" {
		compiler = CompilerVersion
	}
	sourceHash, err := decodeHashHex(a.SourceHash)
	if err != nil {
		return nil, fmt.Errorf("invalid source hash: %w", err)
	}
	moduleHash, err := decodeHashHex(a.ModuleHash)
	if err != nil {
		return nil, fmt.Errorf("invalid module hash: %w", err)
	}

	var buf bytes.Buffer
	buf.Write(magic[:])
	fw := &fieldWriter{w: &buf}
	fw.putU16(version)
	fw.putString(compiler)
	fw.putString(strings.TrimSpace(a.ContractName))
	fw.putString(a.Target)
	fw.putLenBytes(a.Module)
	fw.putLenBytes(a.ABIJSON)
	fw.putLenBytes(a.StorageLayoutJSON)
	fw.write(sourceHash)
	fw.write(moduleHash)
	if fw.err != nil {
		return nil, fw.err
	}
	return buf.Bytes(), nil
}

// Decode deserializes a binary artifact, rejecting a payload whose embedded
// module hash does not match its module bytes or whose module does not
// start with a wasm header — the same "re-derive and compare, don't just
// trust the field" check DecodeTOC applies to its embedded bytecode.
func Decode(data []byte) (*Artifact, error) {
	c := newCursor(data)
	got := c.fixedBytes(len(magic))
	if got == nil || !bytes.Equal(got, magic[:]) {
		return nil, fmt.Errorf("invalid artifact magic")
	}
	version := c.u16()
	compiler := c.str()
	contractName := c.str()
	tgtName := c.str()
	module := c.lenBytes()
	abiJSON := c.lenBytes()
	storageJSON := c.lenBytes()
	sourceHash := c.fixedBytes(32)
	moduleHash := c.fixedBytes(32)
	if c.err != nil {
		return nil, fmt.Errorf("%w: %v", errTruncatedArtifact, c.err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported artifact version: got=%d want=%d", version, FormatVersion)
	}
	if c.pos != len(data) {
		return nil, fmt.Errorf("trailing bytes in artifact payload")
	}
	if strings.TrimSpace(contractName) == "" {
		return nil, fmt.Errorf("artifact contract name is empty")
	}
	if len(module) < 8 || !bytes.Equal(module[:4], []byte{0x00, 0x61, 0x73, 0x6D}) {
		return nil, fmt.Errorf("artifact module is not a wasm binary")
	}
	gotModuleHash := keccak256Bytes(module)
	if !bytes.Equal(gotModuleHash, moduleHash) {
		return nil, fmt.Errorf("artifact module hash mismatch")
	}
	return &Artifact{
		Version:           version,
		Compiler:          compiler,
		ContractName:      contractName,
		Target:            tgtName,
		Module:            module,
		ABIJSON:           abiJSON,
		StorageLayoutJSON: storageJSON,
		SourceHash:        "0x" + hex.EncodeToString(sourceHash),
		ModuleHash:        "0x" + hex.EncodeToString(moduleHash),
	}, nil
}

// VerifySourceHash checks whether a decoded artifact matches the given
// source bytes, the way a deployer would confirm a downloaded artifact
// really was built from the source it is shipped alongside.
func VerifySourceHash(a *Artifact, source []byte) error {
	if a == nil {
		return fmt.Errorf("nil artifact")
	}
	want := keccak256Hex(source)
	got := strings.ToLower(strings.TrimSpace(a.SourceHash))
	if got != want {
		return fmt.Errorf("artifact source hash mismatch: got=%s want=%s", a.SourceHash, want)
	}
	return nil
}

func decodeHashHex(v string) ([]byte, error) {
	s := strings.TrimSpace(strings.ToLower(v))
	if s == "" {
		return nil, fmt.Errorf("empty hash")
	}
	if !strings.HasPrefix(s, "0x") {
		return nil, fmt.Errorf("hash must start with 0x")
	}
	raw := s[2:]
	if len(raw) != 64 {
		return nil, fmt.Errorf("hash must be 32 bytes")
	}
	return hex.DecodeString(raw)
}

func keccak256Hex(data []byte) string {
	return "0x" + hex.EncodeToString(keccak256Bytes(data))
}

func keccak256Bytes(data []byte) []byte {
	h := sha3.NewLegacyKeccak256()
	_, _ = h.Write(data)
	return h.Sum(nil)
}
