// modeltool inspects model definitions stored in GRF archives and asset
// directories.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Faultbox/midgard-modelbake/internal/assets"
	"github.com/Faultbox/midgard-modelbake/internal/engine/model"
	"github.com/Faultbox/midgard-modelbake/internal/engine/texture"
	"github.com/Faultbox/midgard-modelbake/internal/modelid"
	"github.com/Faultbox/midgard-modelbake/internal/patch"
	"github.com/Faultbox/midgard-modelbake/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "list", "ls":
		cmdList(args)
	case "deps":
		cmdDeps(args)
	case "bake":
		cmdBake(args)
	case "rsm":
		cmdRSM(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modeltool - model definition inspector

Usage:
  modeltool <command> [options]

Commands:
  list <asset>... [-match pattern]   List models found in archives/directories
  deps <model> <asset>...            Show model and texture dependencies
  bake <model> <asset>...            Bake one model and show its quads
  rsm [-o out.rsm] <file.rsm>        Show RSM mesh information, optionally rewrite it

Assets ending in .grf are opened as archives, anything else as a directory.

Examples:
  modeltool list data.grf resources -match prontera
  modeltool deps examplemod:block/stone resources
  modeltool bake -format position_color_texture ro:model/prontera/tree.rsm data.grf
  modeltool rsm tree.rsm
  modeltool rsm -o tree_clean.rsm tree.rsm`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func openLoader(paths []string) (*model.Loader, *assets.Manager) {
	mgr := assets.NewManager()
	for _, p := range paths {
		var err error
		if strings.EqualFold(filepath.Ext(p), ".grf") {
			err = mgr.AddArchive(p)
		} else {
			err = mgr.AddDirectory(p)
		}
		if err != nil {
			mgr.Close()
			fail("%v", err)
		}
	}
	atlas := texture.NewAtlas(texture.BlocksAtlasID, mgr)
	return model.NewLoader(model.NewAssetSource(mgr), atlas), mgr
}

func parseModelArg(s string) modelid.Identifier {
	mid, err := modelid.ParseModel(s)
	if err != nil {
		fail("%v", err)
	}
	return mid.Key()
}

func cmdList(args []string) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	match := fs.String("match", "", "Only list models whose id contains this text")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool list <asset>... [-match pattern]")
		os.Exit(1)
	}

	mgr := assets.NewManager()
	defer mgr.Close()
	for _, p := range fs.Args() {
		var err error
		if strings.EqualFold(filepath.Ext(p), ".grf") {
			err = mgr.AddArchive(p)
		} else {
			err = mgr.AddDirectory(p)
		}
		if err != nil {
			fail("%v", err)
		}
	}

	src := model.NewAssetSource(mgr)
	count := 0
	kinds := make(map[string]int)
	for _, id := range src.ListModels() {
		if *match != "" && !strings.Contains(id.String(), strings.ToLower(*match)) {
			continue
		}
		kind := kindOf(src, id)
		kinds[kind]++
		fmt.Printf("%-10s %s\n", kind, id)
		count++
	}

	fmt.Fprintf(os.Stderr, "\n(%d models", count)
	for _, k := range sortedKeys(kinds) {
		fmt.Fprintf(os.Stderr, ", %d %s", kinds[k], k)
	}
	fmt.Fprintln(os.Stderr, ")")
}

func kindOf(src model.ModelSource, id modelid.Identifier) string {
	m, err := src.LoadModel(id)
	if err != nil {
		return "invalid"
	}
	switch m.(type) {
	case *model.BlockModel:
		return "block"
	case *model.CompositeModel:
		return "composite"
	case *model.RSMModel:
		return "rsm"
	default:
		return fmt.Sprintf("%T", m)
	}
}

func cmdDeps(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool deps <model> <asset>...")
		os.Exit(1)
	}

	loader, mgr := openLoader(args[1:])
	defer mgr.Close()

	root := parseModelArg(args[0])
	printTree(loader, root, "", map[modelid.Identifier]bool{})

	fmt.Println("\nTextures:")
	for _, id := range loader.GetOrLoadModel(root).TextureDependencies(loader.GetOrLoadModel) {
		status := ""
		if loader.Atlas().GetSprite(id).IsMissing() {
			status = "  (missing)"
		}
		fmt.Printf("  %s%s\n", id, status)
	}
}

func printTree(loader *model.Loader, id modelid.Identifier, indent string, seen map[modelid.Identifier]bool) {
	if seen[id] {
		fmt.Printf("%s%s (cycle)\n", indent, id)
		return
	}
	seen[id] = true
	defer delete(seen, id)

	m := loader.GetOrLoadModel(id)
	fmt.Printf("%s%s\n", indent, id)
	for _, dep := range m.Dependencies() {
		printTree(loader, dep, indent+"  ", seen)
	}
}

func cmdBake(args []string) {
	fs := flag.NewFlagSet("bake", flag.ExitOnError)
	format := fs.String("format", "", "Vertex format (default: loader format)")
	x := fs.Int("x", 0, "X rotation in degrees")
	y := fs.Int("y", 0, "Y rotation in degrees")
	fs.Parse(args)

	if fs.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool bake [-format name] [-x deg] [-y deg] <model> <asset>...")
		os.Exit(1)
	}

	loader, mgr := openLoader(fs.Args()[1:])
	defer mgr.Close()
	adapter := patch.Install(loader, patch.Options{})

	var vf *model.VertexFormat
	if *format != "" {
		var ok bool
		if vf, ok = model.LookupVertexFormat(*format); !ok {
			fail("unknown vertex format %q (known: %s)", *format, strings.Join(model.VertexFormatNames(), ", "))
		}
	}

	id := parseModelArg(fs.Arg(0))
	baked, err := adapter.GetBakedModel(id, model.BakeSettings{X: *x, Y: *y}, nil, vf)
	if err != nil {
		fail("%v", err)
	}
	printBaked(baked)
}

func printBaked(baked *model.BakedModel) {
	fmt.Printf("Model:   %s\n", baked.ID)
	fmt.Printf("Format:  %s (%d floats per vertex)\n", baked.Format.Name(), baked.Format.Stride())
	fmt.Printf("Quads:   %d\n", len(baked.Quads))
	if baked.Particle != nil {
		fmt.Printf("Particle: %s\n", baked.Particle.ID)
	}
	fmt.Println()
	fmt.Println("Quads by face:")
	for _, d := range model.AllDirections {
		if n := len(baked.QuadsFor(d)); n > 0 {
			fmt.Printf("  %-6s %d\n", d, n)
		}
	}
	fmt.Println()
	fmt.Println("Sprites:")
	for _, id := range baked.Sprites() {
		fmt.Printf("  %s\n", id)
	}
}

func cmdRSM(args []string) {
	fs := flag.NewFlagSet("rsm", flag.ExitOnError)
	out := fs.String("o", "", "re-encode the model to this file")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modeltool rsm [-o out.rsm] <file.rsm>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	rsm, err := formats.ParseRSMFile(path)
	if err != nil {
		fail("%v", err)
	}

	fmt.Printf("File:     %s\n", path)
	fmt.Printf("Version:  %s\n", rsm.Version)
	fmt.Printf("Anim:     %d ms\n", rsm.AnimLength)
	fmt.Printf("Alpha:    %.2f\n", rsm.Alpha)
	fmt.Println()
	fmt.Println("Textures:")
	for i, tex := range rsm.Textures {
		fmt.Printf("  %2d %s -> %s\n", i, tex, model.RSMTextureID(tex))
	}
	fmt.Println()
	fmt.Println("Nodes:")
	for _, n := range rsm.Nodes {
		parent := n.Parent
		if parent == "" {
			parent = "-"
		}
		fmt.Printf("  %-20s parent=%-20s vertices=%d faces=%d\n", n.Name, parent, len(n.Vertices), len(n.Faces))
	}

	// The rewrite keeps the parsed version and re-encodes names as EUC-KR.
	if *out != "" {
		if err := formats.WriteRSMFile(*out, rsm); err != nil {
			fail("%v", err)
		}
		fmt.Printf("\nWrote %s\n", *out)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
