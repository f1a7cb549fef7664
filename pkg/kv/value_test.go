package kv

import "testing"

func TestValueIsAllocated(t *testing.T) {
	cases := []struct {
		name string
		val  Value
		want bool
	}{
		{"zero value", Value{}, false},
		{"ver zero off nonzero", Value{Off: 5}, false},
		{"allocated", Value{Off: 5, Ver: 1}, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.val.IsAllocated(); got != tc.want {
				t.Errorf("IsAllocated() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestValueDeallocate(t *testing.T) {
	v := Value{Off: 42, Ver: 7}
	v.Deallocate()

	if v.Off != 0 || v.Ver != 0 {
		t.Errorf("Deallocate() left v = %+v, want zero value", v)
	}
}

func TestValueGobRoundTrip(t *testing.T) {
	v := Value{Off: 0x01020304, Ver: 0x050607}

	buf, err := v.GobEncode()
	if err != nil {
		t.Fatalf("GobEncode() error = %v", err)
	}
	if len(buf) != valueWireLen {
		t.Fatalf("GobEncode() len = %d, want %d", len(buf), valueWireLen)
	}

	var got Value
	if err := got.GobDecode(buf); err != nil {
		t.Fatalf("GobDecode() error = %v", err)
	}
	if got != v {
		t.Errorf("round trip = %+v, want %+v", got, v)
	}
}

func TestValueGobDecodeWrongLength(t *testing.T) {
	var v Value
	if err := v.GobDecode([]byte{1, 2, 3}); err == nil {
		t.Error("GobDecode() with short buffer should error")
	}
}
