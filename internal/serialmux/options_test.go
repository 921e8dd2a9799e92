package serialmux

import (
	"testing"

	"go.bug.st/serial"
)

func TestPortOptions_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      PortOptions
		want    PortOptions
		wantErr bool
	}{
		{
			name: "defaults",
			in:   PortOptions{},
			want: PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N"},
		},
		{
			name: "long parity names",
			in:   PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: " even "},
			want: PortOptions{BaudRate: 9600, DataBits: 7, StopBits: 2, Parity: "E"},
		},
		{name: "bad data bits", in: PortOptions{DataBits: 9}, wantErr: true},
		{name: "bad stop bits", in: PortOptions{StopBits: 3}, wantErr: true},
		{name: "bad parity", in: PortOptions{Parity: "mark"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				if err == nil {
					t.Fatalf("Normalize(%+v) succeeded, want error", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if got != tt.want {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPortOptions_SerialMode(t *testing.T) {
	mode, err := PortOptions{Parity: "O", StopBits: 2}.SerialMode()
	if err != nil {
		t.Fatalf("SerialMode: %v", err)
	}
	if mode.BaudRate != DefaultBaudRate || mode.DataBits != 8 {
		t.Errorf("mode = %+v", mode)
	}
	if mode.Parity != serial.OddParity {
		t.Errorf("Parity = %v, want odd", mode.Parity)
	}
	if mode.StopBits != serial.StopBits(2) {
		t.Errorf("StopBits = %v", mode.StopBits)
	}
}

func TestPortOptions_EqualAndString(t *testing.T) {
	a := PortOptions{}
	b := PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "none"}
	if !a.Equal(b) {
		t.Error("defaults should equal explicit 115200 8N1")
	}
	if a.Equal(PortOptions{BaudRate: 9600}) {
		t.Error("different baud rates reported equal")
	}
	n, _ := a.Normalize()
	if got := n.String(); got != "115200 8N1" {
		t.Errorf("String() = %q", got)
	}
}
