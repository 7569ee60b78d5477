package report

// Render writes every artifact of the bundle under dir: the text tables,
// the workbook, and the figures. It returns the written paths in that
// order. Rendering stops at the first failing artifact.
func Render(dir string, b *Bundle, opts Options) ([]string, error) {
	paths, err := WriteTables(dir, b, opts)
	if err != nil {
		return nil, err
	}

	workbook, err := WriteWorkbook(dir, b)
	if err != nil {
		return nil, err
	}
	paths = append(paths, workbook)

	figures, err := WriteFigures(dir, b, opts)
	if err != nil {
		return nil, err
	}
	return append(paths, figures...), nil
}
