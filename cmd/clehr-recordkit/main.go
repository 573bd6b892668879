package main

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"clehr.dev/recordkit/changecontrol"
	"clehr.dev/recordkit/cidutil"
	"clehr.dev/recordkit/identifier"
	"clehr.dev/recordkit/keys"
	"clehr.dev/recordkit/storage"
	"clehr.dev/recordkit/storage/bundle"
	"clehr.dev/recordkit/storage/registry"
	"clehr.dev/recordkit/terminology"

	_ "clehr.dev/recordkit/storage/grpcstore"
	_ "clehr.dev/recordkit/storage/localfs"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}

	switch args[0] {
	case "id":
		return cmdID(args[1:], out, errOut)
	case "key":
		return cmdKey(args[1:], out, errOut)
	case "sign":
		return cmdSign(args[1:], out, errOut)
	case "verify":
		return cmdVerify(args[1:], out, errOut)
	case "cid":
		return cmdCID(args[1:], out, errOut)
	case "export":
		return cmdExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "clehr-recordkit: clinical record version-control CLI")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  clehr-recordkit id <identifier>")
	fmt.Fprintln(w, "  clehr-recordkit key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  clehr-recordkit key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  clehr-recordkit key list")
	fmt.Fprintln(w, "  clehr-recordkit key export --name <name> [--role <role>]")
	fmt.Fprintln(w, "  clehr-recordkit sign --file <version.json> (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>)")
	fmt.Fprintln(w, "  clehr-recordkit verify --file <version.json> --committer-key <ed25519:...>")
	fmt.Fprintln(w, "  clehr-recordkit cid <version.json>")
	fmt.Fprintln(w, "  clehr-recordkit export --backend <name> --container <uid> [backend flags] > records.tar")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - --seed-hex must be 32 bytes (64 hex chars) ed25519 seed")
	fmt.Fprintln(w, "  - keys are stored under ~/.clehr/keys/<name> (0600 seed files)")
	fmt.Fprintln(w, "  - sign writes the signed version record to stdout")
	fmt.Fprintln(w, "  - cid prints the content id of the record's canonical form (signature excluded)")
	fmt.Fprintln(w, "  - export writes a deterministic TAR of a container's archived canonical records")
}

func cmdID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("id", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: clehr-recordkit id <identifier>")
		return 2
	}
	value := fs.Arg(0)

	if id, err := identifier.ParseObjectVersionID(value); err == nil {
		fmt.Fprintln(out, "kind: OBJECT_VERSION_ID")
		fmt.Fprintf(out, "object_id: %s\n", id.ObjectID().Value())
		fmt.Fprintf(out, "creating_system_id: %s\n", id.CreatingSystemID().Value())
		fmt.Fprintf(out, "version_tree_id: %s\n", id.VersionTreeID().Value())
		fmt.Fprintf(out, "is_branch: %v\n", id.IsBranch())
		return 0
	}
	if id, err := identifier.ParseHierObjectID(value); err == nil {
		fmt.Fprintln(out, "kind: HIER_OBJECT_ID")
		fmt.Fprintf(out, "root: %s\n", id.Root().Value())
		fmt.Fprintf(out, "root_kind: %s\n", id.Root().Kind())
		return 0
	}
	if id, err := identifier.ParseVersionTreeID(value); err == nil {
		fmt.Fprintln(out, "kind: VERSION_TREE_ID")
		fmt.Fprintf(out, "trunk_version: %s\n", id.TrunkVersion())
		if id.IsBranch() {
			fmt.Fprintf(out, "branch_number: %s\n", id.BranchNumber())
			fmt.Fprintf(out, "branch_version: %s\n", id.BranchVersion())
		}
		return 0
	}
	fmt.Fprintf(errOut, "not a valid identifier: %q\n", value)
	return 1
}

func cmdKey(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 {
		printKeyUsage(errOut)
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	case "help", "-h", "--help":
		printKeyUsage(out)
		return 0
	default:
		fmt.Fprintf(errOut, "unknown key subcommand: %s\n\n", args[0])
		printKeyUsage(errOut)
		return 2
	}
}

func printKeyUsage(w io.Writer) {
	fmt.Fprintln(w, "clehr-recordkit key: local committer key management")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  clehr-recordkit key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  clehr-recordkit key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  clehr-recordkit key list")
	fmt.Fprintln(w, "  clehr-recordkit key export --name <name> [--role <role>]")
}

func cmdKeyInit(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key init", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var seedHex string
	var force bool

	fs.StringVar(&name, "name", "", "Key name (directory under ~/.clehr/keys)")
	fs.StringVar(&seedHex, "seed-hex", "", "Optional ed25519 seed as 64 hex chars (for reproducible demos)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}

	var seed []byte
	if seedHex != "" {
		var derr error
		seed, derr = keys.ParseSeedHex(seedHex)
		if derr != nil {
			fmt.Fprintf(errOut, "invalid --seed-hex: %v\n", derr)
			return 2
		}
	} else {
		seed = make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "rand: %v\n", err)
			return 1
		}
	}

	committerKey, rootPath, err := ks.InitializeRootKey(name, seed, force)
	if err != nil {
		fmt.Fprintf(errOut, "write key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created root key: %s\n", committerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rootPath)
	return 0
}

func cmdKeyDerive(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key derive", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var from string
	var role string
	var force bool

	fs.StringVar(&from, "from", "", "Root key name")
	fs.StringVar(&role, "role", "", "Role identifier (author, attester, importer)")
	fs.BoolVar(&force, "force", false, "Overwrite existing key files")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if from == "" {
		fmt.Fprintln(errOut, "missing --from")
		return 2
	}
	if role == "" {
		fmt.Fprintln(errOut, "missing --role")
		return 2
	}
	if err := keys.CheckKeyName(from); err != nil {
		fmt.Fprintf(errOut, "invalid --from: %v\n", err)
		return 2
	}
	if err := keys.CheckRole(role); err != nil {
		fmt.Fprintf(errOut, "invalid --role: %v\n", err)
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	committerKey, rolePath, err := ks.DeriveKeyFromRole(from, role, force)
	if err != nil {
		fmt.Fprintf(errOut, "derive role key: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "Created role key: %s\n", committerKey)
	fmt.Fprintf(out, "Stored at: %s\n", rolePath)
	return 0
}

func cmdKeyExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var name string
	var role string

	fs.StringVar(&name, "name", "", "Key name")
	fs.StringVar(&role, "role", "", "Optional role (if set, exports derived role key)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if name == "" {
		fmt.Fprintln(errOut, "missing --name")
		return 2
	}
	if err := keys.CheckKeyName(name); err != nil {
		fmt.Fprintf(errOut, "invalid --name: %v\n", err)
		return 2
	}
	if role != "" {
		if err := keys.CheckRole(role); err != nil {
			fmt.Fprintf(errOut, "invalid --role: %v\n", err)
			return 2
		}
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	committerKey, err := ks.ExportKey(name, role)
	if err != nil {
		fmt.Fprintf(errOut, "export key: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, committerKey)
	return 0
}

func cmdKeyList(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("key list", flag.ContinueOnError)
	fs.SetOutput(errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	entries, err := ks.ListKeys()
	if err != nil {
		fmt.Fprintf(errOut, "list keys: %v\n", err)
		return 1
	}
	for _, e := range entries {
		fmt.Fprintf(out, "%s\n", e.Name)
		for _, r := range e.Roles {
			fmt.Fprintf(out, "  - %s\n", r)
		}
	}
	return 0
}

func readVersionRecord(path string, errOut io.Writer) (changecontrol.Version[json.RawMessage], []byte, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
		return nil, nil, false
	}
	v, err := changecontrol.DecodeVersion[json.RawMessage](terminology.NewLocalService(), b)
	if err != nil {
		fmt.Fprintf(errOut, "invalid version record: %v\n", err)
		return nil, nil, false
	}
	return v, b, true
}

func cmdSign(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("sign", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var file string
	var seedHex string
	var signerName string
	var signerRole string
	var keyFile string
	var printCommitterKey bool

	fs.StringVar(&file, "file", "", "Version record file (JSON)")
	fs.StringVar(&seedHex, "seed-hex", "", "ed25519 seed as 64 hex chars")
	fs.StringVar(&signerName, "signer", "", "Use a stored key by name (from 'clehr-recordkit key init')")
	fs.StringVar(&signerRole, "signer-role", "", "When using --signer, optionally use a derived role key")
	fs.StringVar(&keyFile, "key-file", "", "Path to a seed file (hex) created by 'clehr-recordkit key init/derive'")
	fs.BoolVar(&printCommitterKey, "print-committer-key", true, "Print Committer-Key to stderr")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		fmt.Fprintln(errOut, "missing --file")
		return 2
	}
	if seedHex == "" && signerName == "" && keyFile == "" {
		fmt.Fprintln(errOut, "missing signer: use --seed-hex, --signer, or --key-file")
		return 2
	}
	if seedHex != "" && (signerName != "" || keyFile != "") {
		fmt.Fprintln(errOut, "conflicting signer flags: --seed-hex cannot be combined with --signer or --key-file")
		return 2
	}
	if signerName != "" && keyFile != "" {
		fmt.Fprintln(errOut, "conflicting signer flags: --signer cannot be combined with --key-file")
		return 2
	}

	ks, err := keys.CreateKeyStore("")
	if err != nil {
		fmt.Fprintf(errOut, "keys: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(seedHex, signerName, signerRole, keyFile)
	if err != nil {
		fmt.Fprintf(errOut, "invalid signer: %v\n", err)
		return 2
	}
	priv := ed25519.NewKeyFromSeed(seed)
	if printCommitterKey {
		fmt.Fprintf(errOut, "Committer-Key: %s\n", keys.GenerateCommitterKeyFromSeed(seed))
	}

	v, _, ok := readVersionRecord(file, errOut)
	if !ok {
		return 1
	}
	signed, err := keys.SignVersion(v, priv)
	if err != nil {
		fmt.Fprintf(errOut, "sign: %v\n", err)
		return 1
	}
	b, err := json.Marshal(signed)
	if err != nil {
		fmt.Fprintf(errOut, "encode: %v\n", err)
		return 1
	}
	_, _ = out.Write(b)
	return 0
}

func cmdVerify(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var file string
	var committerKey string

	fs.StringVar(&file, "file", "", "Version record file (JSON)")
	fs.StringVar(&committerKey, "committer-key", "", "Committer key (ed25519:<base64-pub>)")

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if file == "" {
		fmt.Fprintln(errOut, "missing --file")
		return 2
	}
	if committerKey == "" {
		fmt.Fprintln(errOut, "missing --committer-key")
		return 2
	}

	v, _, ok := readVersionRecord(file, errOut)
	if !ok {
		return 1
	}
	valid, err := keys.VerifyVersionSignature(v, committerKey)
	if err != nil {
		fmt.Fprintf(errOut, "verify: %v\n", err)
		return 1
	}
	if !valid {
		fmt.Fprintln(errOut, "FAIL: signature does not verify")
		return 1
	}
	_, _ = fmt.Fprintln(out, "OK")
	return 0
}

func cmdCID(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("cid", flag.ContinueOnError)
	fs.SetOutput(errOut)
	var raw bool
	fs.BoolVar(&raw, "raw", false, "Treat the file as opaque bytes instead of a version record")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: clehr-recordkit cid [--raw] <file>")
		return 2
	}
	path := fs.Arg(0)

	if raw {
		b, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(errOut, "read %s: %v\n", filepath.Base(path), err)
			return 1
		}
		_, _ = fmt.Fprintln(out, cidutil.CIDv1RawSHA256(b))
		return 0
	}

	v, _, ok := readVersionRecord(path, errOut)
	if !ok {
		return 1
	}
	id, err := changecontrol.CanonicalCID(v)
	if err != nil {
		fmt.Fprintf(errOut, "cid: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(out, id)
	return 0
}

func cmdExport(args []string, out io.Writer, errOut io.Writer) int {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(errOut)

	var backend string
	var container string
	fs.StringVar(&backend, "backend", "localfs", "Record store backend name")
	fs.StringVar(&container, "container", "", "Container uid to export")
	registry.RegisterFlags(fs, registry.UsageCLI)

	if err := fs.Parse(args); err != nil {
		return 2
	}
	if container == "" {
		fmt.Fprintln(errOut, "missing --container")
		return 2
	}
	uid, err := identifier.ParseHierObjectID(container)
	if err != nil {
		fmt.Fprintf(errOut, "invalid --container: %v\n", err)
		return 2
	}

	st, closeFn, err := registry.Open(backend, registry.UsageCLI)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if closeFn != nil {
		defer closeFn()
	}

	archived, ok := st.(interface{ Archive() storage.CAS })
	if !ok {
		fmt.Fprintf(errOut, "backend %q does not expose a local archive; export from the serving side\n", backend)
		return 2
	}
	if err := bundle.ExportContainer[json.RawMessage](out, st, archived.Archive(), uid); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	return 0
}
