package alignment

import (
	"bufio"
	"io"
	"strings"
)

const stockholmHeader = "# STOCKHOLM 1.0"

// WriteStockholm пишет выравнивание в Stockholm-подобном формате:
// по одному блоку на базу, блоки разделены пустой строкой.
//
//	# STOCKHOLM 1.0
//	<descriptor> <sequence>
//	//
func (r *Result) WriteStockholm(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for i, block := range r.Blocks {
		if i > 0 {
			bw.WriteString("\n")
		}
		bw.WriteString(stockholmHeader + "\n")
		for _, h := range block.Hits {
			bw.WriteString(h.Descriptor)
			bw.WriteByte(' ')
			bw.WriteString(h.Sequence)
			bw.WriteByte('\n')
		}
		bw.WriteString("//\n")
	}

	return bw.Flush()
}

// Stockholm возвращает Stockholm-текст строкой.
func (r *Result) Stockholm() string {
	var b strings.Builder
	_ = r.WriteStockholm(&b)
	return b.String()
}
