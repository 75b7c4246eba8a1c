package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mickey951112/solang/internal/artifact"
)

func TestDefaultArtifactName(t *testing.T) {
	if got, want := defaultArtifactName("/tmp/Demo.sol", "Demo"), "/tmp/Demo.swa"; filepath.Base(got) != filepath.Base(want) {
		t.Fatalf("defaultArtifactName() = %q, want basename %q", got, want)
	}
}

func TestPerContractNameInsertsContractBeforeExtension(t *testing.T) {
	got := perContractName("/tmp/out.swa", "Demo")
	want := "/tmp/out.Demo.swa"
	if got != want {
		t.Fatalf("perContractName() = %q, want %q", got, want)
	}
}

const sampleContract = `
contract Counter {
	uint256 public count;

	function increment() public {
		count = count + 1;
	}

	function get() public view returns (uint256) {
		return count;
	}
}
`

func TestCompileWritesDecodableArtifact(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "counter.sol")
	if err := os.WriteFile(input, []byte(sampleContract), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	code := compile(input, []byte(sampleContract), "ethereum", "", false)
	if code != 0 {
		t.Fatalf("compile() exit code = %d, want 0", code)
	}

	out := filepath.Join(dir, "counter.swa")
	body, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output artifact: %v", err)
	}
	a, err := artifact.Decode(body)
	if err != nil {
		t.Fatalf("decode output artifact: %v", err)
	}
	if a.ContractName != "Counter" {
		t.Fatalf("ContractName = %q, want %q", a.ContractName, "Counter")
	}
	if a.Target != "ethereum" {
		t.Fatalf("Target = %q, want %q", a.Target, "ethereum")
	}
}

func TestCompileRejectsUnknownTarget(t *testing.T) {
	if code := compile("counter.sol", []byte(sampleContract), "not-a-real-target", "", false); code == 0 {
		t.Fatalf("compile() with an unknown target = 0, want a nonzero exit code")
	}
}

func TestInspectArtifactVerifiesSourceHash(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "counter.sol")
	if err := os.WriteFile(input, []byte(sampleContract), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	out := filepath.Join(dir, "counter.swa")
	if code := compile(input, []byte(sampleContract), "ethereum", out, false); code != 0 {
		t.Fatalf("compile() exit code = %d, want 0", code)
	}
	body, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output artifact: %v", err)
	}

	if code := inspectArtifact(body, false, false, true, input); code != 0 {
		t.Fatalf("inspectArtifact() verify exit code = %d, want 0", code)
	}

	otherSrc := filepath.Join(dir, "other.sol")
	if err := os.WriteFile(otherSrc, []byte("contract Other {}"), 0o644); err != nil {
		t.Fatalf("write other source: %v", err)
	}
	if code := inspectArtifact(body, false, false, true, otherSrc); code == 0 {
		t.Fatalf("inspectArtifact() verify against a different source = 0, want a nonzero exit code")
	}
}
