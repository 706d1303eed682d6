package ook

import "testing"

func TestAmpToAtt(t *testing.T) {
	cases := []struct {
		amp  int
		want int
	}{
		{32767, 0},
		{32690, 1}, // 阈值本身落到下一档
		{16384, 3}, // 满刻度 = 3 dB 偏移
		{16383, 4},
		{1000, 16},
		{10, 36},
		{0, 36},
	}
	for _, c := range cases {
		if got := AmpToAtt(c.amp); got != c.want {
			t.Errorf("AmpToAtt(%d) = %d, want %d", c.amp, got, c.want)
		}
	}
}

func TestMagToAtt(t *testing.T) {
	cases := []struct {
		mag  int
		want int
	}{
		{32767, 0},
		{16384, 3},
		{16383, 4},
		{4000, 16},
		{0, 36},
	}
	for _, c := range cases {
		if got := MagToAtt(c.mag); got != c.want {
			t.Errorf("MagToAtt(%d) = %d, want %d", c.mag, got, c.want)
		}
	}
}

func TestDbConversions(t *testing.T) {
	if got := dbToAmp(0); got != 16384 {
		t.Errorf("dbToAmp(0) = %d, want 16384", got)
	}
	if got := dbToMag(0); got != 16384 {
		t.Errorf("dbToMag(0) = %d, want 16384", got)
	}
	// -12.1442 dB 幅度 ≈ 1000 (高电平估计的默认下限)
	if got := dbToAmp(-12.1442); got != 1000 {
		t.Errorf("dbToAmp(-12.1442) = %d, want 1000", got)
	}
	// -15 dB 幅度: OOK_MAX_LOW_LEVEL
	if got := dbToAmp(-15); got < 515 || got > 522 {
		t.Errorf("dbToAmp(-15) = %d, want ~518", got)
	}
}
