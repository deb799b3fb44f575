// Command sglutgen writes the lookup tables used by package fixed.
//
// Float math is only used here, offline. The generated file is committed and
// the simulation reads integer tables at run time.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"log"
	"math"
	"os"
)

const lutSize = 1024

var outFile = flag.String("o", "lut_table.go", "output file")

type table struct {
	name string
	doc  string
	eval func(i int) float64
}

func main() {
	flag.Parse()

	tables := []table{
		{
			name: "sinTable",
			doc:  "sinTable holds sin(i/1024 * pi/2) in Q30 for i in [0, 1024].",
			eval: func(i int) float64 { return math.Sin(float64(i) * math.Pi / 2 / lutSize) },
		},
		{
			name: "atanTable",
			doc:  "atanTable holds atan(i/1024) in Q30 radians for i in [0, 1024].",
			eval: func(i int) float64 { return math.Atan(float64(i) / lutSize) },
		},
		{
			name: "exp2Table",
			doc:  "exp2Table holds 2^(i/1024) in Q30 for i in [0, 1024].",
			eval: func(i int) float64 { return math.Exp2(float64(i) / lutSize) },
		},
	}

	var buf bytes.Buffer
	buf.WriteString("// Code generated by sglutgen; DO NOT EDIT.\n\npackage fixed\n\n")
	for _, t := range tables {
		writeTable(&buf, t)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		log.Fatalf("format generated source: %v", err)
	}
	if err := os.WriteFile(*outFile, src, 0o644); err != nil {
		log.Fatalf("write %s: %v", *outFile, err)
	}
}

func writeTable(buf *bytes.Buffer, t table) {
	fmt.Fprintf(buf, "// %s\n", t.doc)
	fmt.Fprintf(buf, "var %s = [lutSize + 1]int64{\n", t.name)
	for i := 0; i <= lutSize; i++ {
		if i%8 == 0 {
			buf.WriteString("\t")
		}
		// Floor(x+0.5) keeps positive ties rounding up
		fmt.Fprintf(buf, "%d,", int64(math.Floor(t.eval(i)*(1<<30)+0.5)))
		if i%8 == 7 || i == lutSize {
			buf.WriteString("\n")
		} else {
			buf.WriteString(" ")
		}
	}
	buf.WriteString("}\n\n")
}
