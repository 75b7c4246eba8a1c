package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mickey951112/solang/internal/artifact"
	"github.com/mickey951112/solang/internal/ast"
	"github.com/mickey951112/solang/internal/codegen"
	"github.com/mickey951112/solang/internal/diag"
	"github.com/mickey951112/solang/internal/optimizer"
	"github.com/mickey951112/solang/internal/parser"
	"github.com/mickey951112/solang/internal/sema"
	"github.com/mickey951112/solang/internal/source"
	"github.com/mickey951112/solang/internal/target"
)

func main() {
	os.Exit(run())
}

func run() int {
	var optTarget, optOut, optVerifySrc string
	var optDiagJSON, optDArtifact, optDArtifactJSON, optVerify bool
	flag.StringVar(&optTarget, "target", "ethereum", "backend target: ethereum, substrate, solana")
	flag.StringVar(&optOut, "o", "", "write the compiled artifact to file")
	flag.StringVar(&optVerifySrc, "vsrc", "", "source file to check against an artifact's embedded source hash (use with -v)")
	flag.BoolVar(&optDiagJSON, "diagjson", false, "emit diagnostics as JSON instead of the default rendered form")
	flag.BoolVar(&optDArtifact, "d", false, "dump a compiled artifact's metadata")
	flag.BoolVar(&optDArtifactJSON, "dj", false, "dump a compiled artifact's metadata as JSON")
	flag.BoolVar(&optVerify, "v", false, "verify an artifact file and report ok/error")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: solang [options] <file.sol>
Available options are:
  -target name  backend target: ethereum, substrate, solana (default ethereum)
  -o file       write the compiled artifact to file
  -diagjson     emit diagnostics as JSON instead of the rendered form
  -d            dump an already-built artifact file's metadata
  -dj           dump an already-built artifact file's metadata as JSON
  -v            verify an artifact file and report ok/error
  -vsrc file    source file to check against an artifact's embedded source hash (use with -v)`)
	}
	flag.Parse()

	if optVerifySrc != "" && !optVerify {
		fmt.Fprintln(os.Stderr, "-vsrc requires -v")
		return 1
	}
	if optDArtifact && optDArtifactJSON {
		fmt.Fprintln(os.Stderr, "cannot use -d and -dj together")
		return 1
	}

	if flag.NArg() == 0 {
		flag.Usage()
		return 1
	}
	input := flag.Arg(0)
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if optDArtifact || optDArtifactJSON || optVerify {
		return inspectArtifact(data, optDArtifact, optDArtifactJSON, optVerify, optVerifySrc)
	}

	return compile(input, data, optTarget, optOut, optDiagJSON)
}

func compile(path string, src []byte, targetName, out string, diagJSON bool) int {
	tgt, ok := target.ByName(targetName)
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown target %q\n", targetName)
		return 1
	}

	files := source.NewSet()
	unit := files.Add(path, src)
	bag := diag.NewBag(files)

	sf := parser.ParseFile(unit.ID, src, bag)
	res := sema.ResolveFiles([]*ast.SourceFile{sf}, bag)

	if bag.HasErrors() {
		reportDiagnostics(bag, diagJSON)
		return 1
	}

	arts := codegen.Compile(res.NS, res, bag, tgt, optimizer.Options{})
	if bag.HasErrors() {
		reportDiagnostics(bag, diagJSON)
		return 1
	}
	reportDiagnostics(bag, diagJSON)
	if len(arts) == 0 {
		fmt.Fprintln(os.Stderr, "no deployable contract found")
		return 1
	}

	status := 0
	for _, ca := range arts {
		a, err := artifact.Build(ca, tgt.Name(), src)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", ca.ContractName, err)
			status = 1
			continue
		}
		enc, err := artifact.Encode(a)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", ca.ContractName, err)
			status = 1
			continue
		}
		dest := out
		if dest == "" {
			dest = defaultArtifactName(path, ca.ContractName)
		} else if len(arts) > 1 {
			dest = perContractName(dest, ca.ContractName)
		}
		if err := os.WriteFile(dest, enc, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", ca.ContractName, err)
			status = 1
			continue
		}
		fmt.Fprintf(os.Stdout, "wrote %s (%s, %d bytes of wasm)\n", dest, ca.ContractName, len(a.Module))
	}
	return status
}

func defaultArtifactName(sourcePath, contractName string) string {
	base := strings.TrimSuffix(sourcePath, filepath.Ext(sourcePath))
	if filepath.Base(base) == "" {
		base = filepath.Join(filepath.Dir(sourcePath), contractName)
	}
	return base + ".swa"
}

func perContractName(dest, contractName string) string {
	ext := filepath.Ext(dest)
	return strings.TrimSuffix(dest, ext) + "." + contractName + ext
}

func reportDiagnostics(bag *diag.Bag, asJSON bool) {
	if len(bag.All()) == 0 {
		return
	}
	if asJSON {
		b, err := json.MarshalIndent(bag.Sorted(), "", "  ")
		if err == nil {
			fmt.Fprintln(os.Stderr, string(b))
		}
		return
	}
	fmt.Fprint(os.Stderr, bag.Render())
}

func inspectArtifact(data []byte, dump, dumpJSON, verify bool, verifySrc string) int {
	if !artifact.IsArtifact(data) {
		fmt.Fprintln(os.Stderr, "not a solang artifact")
		return 1
	}
	a, err := artifact.Decode(data)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if verify {
		if verifySrc != "" {
			srcBytes, err := os.ReadFile(verifySrc)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
			if err := artifact.VerifySourceHash(a, srcBytes); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return 1
			}
		}
		fmt.Fprintln(os.Stdout, "artifact: ok")
		return 0
	}

	if dumpJSON {
		out := struct {
			Version      uint16          `json:"version"`
			Compiler     string          `json:"compiler"`
			ContractName string          `json:"contract_name"`
			Target       string          `json:"target"`
			ModuleBytes  int             `json:"module_bytes"`
			SourceHash   string          `json:"source_hash"`
			ModuleHash   string          `json:"module_hash"`
			ABIJSON      json.RawMessage `json:"abi,omitempty"`
			StorageJSON  json.RawMessage `json:"storage_layout,omitempty"`
		}{
			Version:      a.Version,
			Compiler:     a.Compiler,
			ContractName: a.ContractName,
			Target:       a.Target,
			ModuleBytes:  len(a.Module),
			SourceHash:   a.SourceHash,
			ModuleHash:   a.ModuleHash,
		}
		if len(a.ABIJSON) > 0 {
			out.ABIJSON = json.RawMessage(a.ABIJSON)
		}
		if len(a.StorageLayoutJSON) > 0 {
			out.StorageJSON = json.RawMessage(a.StorageLayoutJSON)
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Fprintln(os.Stdout, string(b))
		return 0
	}

	fmt.Printf("Version: %d\n", a.Version)
	fmt.Printf("Compiler: %s\n", a.Compiler)
	fmt.Printf("Contract: %s\n", a.ContractName)
	fmt.Printf("Target: %s\n", a.Target)
	fmt.Printf("Wasm bytes: %d\n", len(a.Module))
	fmt.Printf("Source hash: %s\n", a.SourceHash)
	fmt.Printf("Module hash: %s\n", a.ModuleHash)
	if len(a.ABIJSON) > 0 {
		fmt.Printf("ABI JSON: %s\n", string(a.ABIJSON))
	}
	if len(a.StorageLayoutJSON) > 0 {
		fmt.Printf("Storage JSON: %s\n", string(a.StorageLayoutJSON))
	}
	return 0
}
