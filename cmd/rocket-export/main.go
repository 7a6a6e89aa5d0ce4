package main

import (
	"bytes"
	"flag"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"

	"github.com/vsariola/rocket"
	"github.com/vsariola/rocket/export"
	"github.com/vsariola/rocket/version"
)

func filterExtensions(input map[string]string, extensions []string) map[string]string {
	ret := map[string]string{}
	for _, ext := range extensions {
		extWithDot := "." + ext
		if inputVal, ok := input[extWithDot]; ok {
			ret[extWithDot] = inputVal
		}
	}
	return ret
}

func main() {
	safe := flag.Bool("n", false, "Never overwrite files; if file already exists and would be overwritten, give an error.")
	stdout := flag.Bool("s", false, "Do not write files; write to standard output instead.")
	help := flag.Bool("h", false, "Show help.")
	jsonOut := flag.Bool("j", false, "Output the tracks as a .json file instead of exporting.")
	yamlOut := flag.Bool("y", false, "Output the tracks as a .yml file instead of exporting.")
	binOut := flag.Bool("b", false, "Output the tracks as a binary .rkt file instead of exporting.")
	cOut := flag.Bool("c", false, "When exporting, output only the C header.")
	asmOut := flag.Bool("a", false, "When exporting, output only the NASM include.")
	tmplDir := flag.String("t", "", "When exporting, use the templates in this directory instead of the built-in templates.")
	outPath := flag.String("o", "", "Directory or filename where to write the output. Extension is ignored. Directory and its parents are created if needed. By default, everything is placed in the same directory where the original track file is.")
	length := flag.Int("l", 0, "Number of rows to bake when exporting. By default, one row past the last key in the tracks.")
	prefix := flag.String("prefix", "sync", "Identifier prefix for the exported tables.")
	versionFlag := flag.Bool("v", false, "Print version.")
	flag.Usage = printUsage
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	if flag.NArg() == 0 || *help {
		flag.Usage()
		os.Exit(0)
	}
	doExport := !*jsonOut && !*yamlOut && !*binOut // if the user gives nothing to output, then the default behaviour is to export baked source code
	var exporter *export.Exporter
	if doExport {
		var err error
		if *tmplDir != "" {
			exporter, err = export.NewFromTemplates(*tmplDir)
		} else {
			exporter, err = export.New()
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating exporter: %v\n", err)
			os.Exit(1)
		}
		exporter.Prefix = *prefix
	}
	output := func(filename string, extension string, contents []byte) error {
		if *stdout {
			fmt.Print(string(contents))
			return nil
		}
		_, name := filepath.Split(filename)
		var dir string
		if *outPath != "" {
			// check if it's an already existing directory and the user just forgot trailing slash
			if info, err := os.Stat(*outPath); err == nil && info.IsDir() {
				dir = *outPath
			} else {
				outdir, outname := filepath.Split(*outPath)
				if outdir != "" {
					dir = outdir
				}
				if outname != "" {
					name = outname
				}
			}
		}
		if dir == "" {
			var err error
			dir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("could not get working directory, specify the output directory explicitly: %v", err)
			}
		}
		name = strings.TrimSuffix(name, filepath.Ext(name)) + extension
		f := filepath.Join(dir, name)
		original, err := ioutil.ReadFile(f)
		if err == nil {
			if bytes.Compare(original, contents) == 0 {
				return nil // no need to update
			}
			if *safe {
				return fmt.Errorf("file %v would be overwritten by export", f)
			}
		}
		if dir != "" {
			if err := os.MkdirAll(dir, os.ModePerm); err != nil {
				return fmt.Errorf("could not create output directory %v: %v", dir, err)
			}
		}
		if err := ioutil.WriteFile(f, contents, 0644); err != nil {
			return fmt.Errorf("could not write file %v: %v", f, err)
		}
		return nil
	}
	process := func(filename string) error {
		inputBytes, err := ioutil.ReadFile(filename)
		if err != nil {
			return fmt.Errorf("could not read file %v: %v", filename, err)
		}
		tracks, err := rocket.DetectEncoding(inputBytes).Decode(bytes.NewReader(inputBytes))
		if err != nil {
			return fmt.Errorf("could not decode the tracks: %v", err)
		}
		reencode := func(extension string, encoding rocket.Encoding) error {
			var buf bytes.Buffer
			if err := encoding.Encode(&buf, tracks); err != nil {
				return fmt.Errorf("could not encode the tracks as a %v file: %v", extension, err)
			}
			if err := output(filename, extension, buf.Bytes()); err != nil {
				return fmt.Errorf("error outputting %v file: %v", extension, err)
			}
			return nil
		}
		if doExport {
			sources, err := exporter.Sources(tracks, *length)
			if err != nil {
				return fmt.Errorf("exporting tracks failed: %v", err)
			}
			var extensions []string
			if *cOut {
				extensions = append(extensions, "h")
			}
			if *asmOut {
				extensions = append(extensions, "inc")
			}
			if len(extensions) > 0 {
				sources = filterExtensions(sources, extensions)
			}
			for extension, code := range sources {
				if err := output(filename, extension, []byte(code)); err != nil {
					return fmt.Errorf("error outputting %v file: %v", extension, err)
				}
			}
		}
		if *jsonOut {
			if err := reencode(".json", rocket.TextEncoding{JSON: true}); err != nil {
				return err
			}
		}
		if *yamlOut {
			if err := reencode(".yml", rocket.TextEncoding{}); err != nil {
				return err
			}
		}
		if *binOut {
			if err := reencode(".rkt", rocket.BinaryEncoding{}); err != nil {
				return err
			}
		}
		return nil
	}
	retval := 0
	for _, param := range flag.Args() {
		if info, err := os.Stat(param); err == nil && info.IsDir() {
			var files []string
			for _, pattern := range []string{"*.yml", "*.json", "*.rkt"} {
				matches, err := filepath.Glob(filepath.Join(param, pattern))
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not glob the path %v for %v files: %v\n", param, pattern, err)
					retval = 1
					continue
				}
				files = append(files, matches...)
			}
			for _, file := range files {
				err := process(file)
				if err != nil {
					fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", file, err)
					retval = 1
				}
			}
		} else {
			err := process(param)
			if err != nil {
				fmt.Fprintf(os.Stderr, "could not process file %v: %v\n", param, err)
				retval = 1
			}
		}
	}
	os.Exit(retval)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Rocket track exporter. Inputs .yml, .json or .rkt track files, outputs baked sync data (e.g. .h and .inc files).\nUsage: %s [flags] [path ...]\n", os.Args[0])
	flag.PrintDefaults()
}
