package model

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{in: "children", want: KindChildren},
		{in: "education", want: KindEducation},
		{in: "documents", want: KindDocuments},
		{in: "notifications", want: KindNotifications},
		{in: "Children", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, хотели %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKindTable(t *testing.T) {
	for _, k := range Kinds {
		if k.Table() == "" {
			t.Errorf("Kind %q: пустое имя таблицы", k)
		}
	}
	if Kind("unknown").Table() != "" {
		t.Error("неизвестный Kind вернул имя таблицы")
	}
}
