// Copyright 2025 Vadim Vygonets.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package coding

// Version and error correction tables, after qrencode's qrspec.c.

// Total codewords and error correction codewords per level.
var capacity = [MaxVersion + 1]struct {
	words int
	ec    [4]int
}{
	1: {26, [4]int{7, 10, 13, 17}},
	2: {44, [4]int{10, 16, 22, 28}},
	3: {70, [4]int{15, 26, 36, 44}},
	4: {100, [4]int{20, 36, 52, 64}},
	5: {134, [4]int{26, 48, 72, 88}},
	6: {172, [4]int{36, 64, 96, 112}},
	7: {196, [4]int{40, 72, 108, 130}},
	8: {242, [4]int{48, 88, 132, 156}},
	9: {292, [4]int{60, 110, 160, 192}},
	10: {346, [4]int{72, 130, 192, 224}},
	11: {404, [4]int{80, 150, 224, 264}},
	12: {466, [4]int{96, 176, 260, 308}},
	13: {532, [4]int{104, 198, 288, 352}},
	14: {581, [4]int{120, 216, 320, 384}},
	15: {655, [4]int{132, 240, 360, 432}},
	16: {733, [4]int{144, 280, 408, 480}},
	17: {815, [4]int{168, 308, 448, 532}},
	18: {901, [4]int{180, 338, 504, 588}},
	19: {991, [4]int{196, 364, 546, 650}},
	20: {1085, [4]int{224, 416, 600, 700}},
	21: {1156, [4]int{224, 442, 644, 750}},
	22: {1258, [4]int{252, 476, 690, 816}},
	23: {1364, [4]int{270, 504, 750, 900}},
	24: {1474, [4]int{300, 560, 810, 960}},
	25: {1588, [4]int{312, 588, 870, 1050}},
	26: {1706, [4]int{336, 644, 952, 1110}},
	27: {1828, [4]int{360, 700, 1020, 1200}},
	28: {1921, [4]int{390, 728, 1050, 1260}},
	29: {2051, [4]int{420, 784, 1140, 1350}},
	30: {2185, [4]int{450, 812, 1200, 1440}},
	31: {2323, [4]int{480, 868, 1290, 1530}},
	32: {2465, [4]int{510, 924, 1350, 1620}},
	33: {2611, [4]int{540, 980, 1440, 1710}},
	34: {2761, [4]int{570, 1036, 1530, 1800}},
	35: {2876, [4]int{570, 1064, 1590, 1890}},
	36: {3034, [4]int{600, 1120, 1680, 1980}},
	37: {3196, [4]int{630, 1204, 1770, 2100}},
	38: {3362, [4]int{660, 1260, 1860, 2220}},
	39: {3532, [4]int{720, 1316, 1950, 2310}},
	40: {3706, [4]int{750, 1372, 2040, 2430}},
}

// Number of short and long error correction blocks per level.
var blocks = [MaxVersion + 1][4][2]int{
	1: {{1, 0}, {1, 0}, {1, 0}, {1, 0}},
	2: {{1, 0}, {1, 0}, {1, 0}, {1, 0}},
	3: {{1, 0}, {1, 0}, {2, 0}, {2, 0}},
	4: {{1, 0}, {2, 0}, {2, 0}, {4, 0}},
	5: {{1, 0}, {2, 0}, {2, 2}, {2, 2}},
	6: {{2, 0}, {4, 0}, {4, 0}, {4, 0}},
	7: {{2, 0}, {4, 0}, {2, 4}, {4, 1}},
	8: {{2, 0}, {2, 2}, {4, 2}, {4, 2}},
	9: {{2, 0}, {3, 2}, {4, 4}, {4, 4}},
	10: {{2, 2}, {4, 1}, {6, 2}, {6, 2}},
	11: {{4, 0}, {1, 4}, {4, 4}, {3, 8}},
	12: {{2, 2}, {6, 2}, {4, 6}, {7, 4}},
	13: {{4, 0}, {8, 1}, {8, 4}, {12, 4}},
	14: {{3, 1}, {4, 5}, {11, 5}, {11, 5}},
	15: {{5, 1}, {5, 5}, {5, 7}, {11, 7}},
	16: {{5, 1}, {7, 3}, {15, 2}, {3, 13}},
	17: {{1, 5}, {10, 1}, {1, 15}, {2, 17}},
	18: {{5, 1}, {9, 4}, {17, 1}, {2, 19}},
	19: {{3, 4}, {3, 11}, {17, 4}, {9, 16}},
	20: {{3, 5}, {3, 13}, {15, 5}, {15, 10}},
	21: {{4, 4}, {17, 0}, {17, 6}, {19, 6}},
	22: {{2, 7}, {17, 0}, {7, 16}, {34, 0}},
	23: {{4, 5}, {4, 14}, {11, 14}, {16, 14}},
	24: {{6, 4}, {6, 14}, {11, 16}, {30, 2}},
	25: {{8, 4}, {8, 13}, {7, 22}, {22, 13}},
	26: {{10, 2}, {19, 4}, {28, 6}, {33, 4}},
	27: {{8, 4}, {22, 3}, {8, 26}, {12, 28}},
	28: {{3, 10}, {3, 23}, {4, 31}, {11, 31}},
	29: {{7, 7}, {21, 7}, {1, 37}, {19, 26}},
	30: {{5, 10}, {19, 10}, {15, 25}, {23, 25}},
	31: {{13, 3}, {2, 29}, {42, 1}, {23, 28}},
	32: {{17, 0}, {10, 23}, {10, 35}, {19, 35}},
	33: {{17, 1}, {14, 21}, {29, 19}, {11, 46}},
	34: {{13, 6}, {14, 23}, {44, 7}, {59, 1}},
	35: {{12, 7}, {12, 26}, {39, 14}, {22, 41}},
	36: {{6, 14}, {6, 34}, {46, 10}, {2, 64}},
	37: {{17, 4}, {29, 14}, {49, 10}, {24, 46}},
	38: {{4, 18}, {13, 32}, {48, 14}, {42, 32}},
	39: {{20, 4}, {40, 7}, {43, 22}, {10, 67}},
	40: {{19, 6}, {18, 31}, {34, 34}, {20, 61}},
}

// First and second alignment pattern centre after 6.  Further
// centres follow at the distance between the two.
var align = [MaxVersion + 1][2]int{
	1: {0, 0}, 2: {18, 0}, 3: {22, 0}, 4: {26, 0}, 5: {30, 0},
	6: {34, 0}, 7: {22, 38}, 8: {24, 42}, 9: {26, 46}, 10: {28, 50},
	11: {30, 54}, 12: {32, 58}, 13: {34, 62}, 14: {26, 46}, 15: {26, 48},
	16: {26, 50}, 17: {30, 54}, 18: {30, 56}, 19: {30, 58}, 20: {34, 62},
	21: {28, 50}, 22: {26, 50}, 23: {30, 54}, 24: {28, 54}, 25: {32, 58},
	26: {30, 58}, 27: {34, 62}, 28: {26, 50}, 29: {30, 54}, 30: {26, 52},
	31: {30, 56}, 32: {34, 60}, 33: {30, 58}, 34: {34, 62}, 35: {30, 54},
	36: {24, 50}, 37: {28, 54}, 38: {32, 58}, 39: {26, 54}, 40: {30, 58},
}

type level struct {
	nblock int // number of error correction blocks
	check  int // error correction codewords per block
}

type version struct {
	bytes   int    // total codewords
	pattern uint32 // version information, 0 below version 7
	align   []int  // alignment pattern centres
	level   [4]level
}

// Version table.
var vtab [MaxVersion + 1]version

// Format information, indexed by level and mask.
var ftab [4][8]uint16

func init() {
	for v := MinVersion; v <= MaxVersion; v++ {
		vt := &vtab[v]
		vt.bytes = capacity[v].words
		for l := range vt.level {
			nb := blocks[v][l][0] + blocks[v][l][1]
			if capacity[v].ec[l]%nb != 0 {
				panic("coding: bad error correction table")
			}
			vt.level[l] = level{nb, capacity[v].ec[l] / nb}
		}
		vt.align = alignment(v)
		if v >= 7 {
			vt.pattern = bch(uint32(v), 0x1f25, 12)
		}
	}
	for l := range ftab {
		for m := range ftab[l] {
			// L=01, M=00, Q=11, H=10
			ftab[l][m] = uint16(bch(uint32(l^1)<<3|uint32(m), 0x537, 10)) ^ 0x5412
		}
	}
}

func alignment(v Version) []int {
	first, second := align[v][0], align[v][1]
	if first == 0 {
		return nil
	}
	pos := []int{6, first}
	if second == 0 {
		return pos
	}
	for p := second; p <= v.Size()-7; p += second - first {
		pos = append(pos, p)
	}
	return pos
}

// bch returns data followed by the n-bit remainder of dividing
// data·x^n by poly.
func bch(data, poly uint32, n int) uint32 {
	rem := data << n
	for i := 31; i >= n; i-- {
		if rem>>i&1 != 0 {
			rem ^= poly << (i - n)
		}
	}
	return data<<n | rem
}
