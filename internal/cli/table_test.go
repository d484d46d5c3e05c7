package cli

import "testing"

func TestTableRender(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Table
		want  string
	}{
		{
			name:  "no headers",
			build: func() *Table { return NewTable() },
			want:  "",
		},
		{
			name: "left aligned",
			build: func() *Table {
				tbl := NewTable("Name", "Hex")
				tbl.AddRow("red", "#ff0000")
				tbl.AddRow("blue-ish", "#0000fe")
				return tbl
			},
			want: "Name      Hex\n" +
				"--------  -------\n" +
				"red       #ff0000\n" +
				"blue-ish  #0000fe\n",
		},
		{
			name: "right aligned numbers",
			build: func() *Table {
				tbl := NewTable("#", "Pixels")
				tbl.AlignRight(0)
				tbl.AlignRight(1)
				tbl.AddRow("1", "12345")
				tbl.AddRow("10", "7")
				return tbl
			},
			want: " #  Pixels\n" +
				"--  ------\n" +
				" 1   12345\n" +
				"10       7\n",
		},
		{
			name: "short and long rows",
			build: func() *Table {
				tbl := NewTable("A", "B")
				tbl.AddRow("x")
				tbl.AddRow("y", "z", "dropped")
				return tbl
			},
			want: "A  B\n" +
				"-  -\n" +
				"x\n" +
				"y  z\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.build().Render(); got != tt.want {
				t.Errorf("Render() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}
