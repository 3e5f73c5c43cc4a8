package main

// rgb maps lowercase X11 colour names, spaces removed, to colours.
var rgb = map[string]rgba{
	"black":          {0x00, 0x00, 0x00, 0xff},
	"white":          {0xff, 0xff, 0xff, 0xff},
	"transparent":    {0x00, 0x00, 0x00, 0x00},
	"gray":           {0xbe, 0xbe, 0xbe, 0xff},
	"grey":           {0xbe, 0xbe, 0xbe, 0xff},
	"darkgray":       {0xa9, 0xa9, 0xa9, 0xff},
	"darkgrey":       {0xa9, 0xa9, 0xa9, 0xff},
	"dimgray":        {0x69, 0x69, 0x69, 0xff},
	"dimgrey":        {0x69, 0x69, 0x69, 0xff},
	"lightgray":      {0xd3, 0xd3, 0xd3, 0xff},
	"lightgrey":      {0xd3, 0xd3, 0xd3, 0xff},
	"slategray":      {0x70, 0x80, 0x90, 0xff},
	"slategrey":      {0x70, 0x80, 0x90, 0xff},
	"ivory":          {0xff, 0xff, 0xf0, 0xff},
	"beige":          {0xf5, 0xf5, 0xdc, 0xff},
	"linen":          {0xfa, 0xf0, 0xe6, 0xff},
	"snow":           {0xff, 0xfa, 0xfa, 0xff},
	"red":            {0xff, 0x00, 0x00, 0xff},
	"darkred":        {0x8b, 0x00, 0x00, 0xff},
	"firebrick":      {0xb2, 0x22, 0x22, 0xff},
	"maroon":         {0xb0, 0x30, 0x60, 0xff},
	"crimson":        {0xdc, 0x14, 0x3c, 0xff},
	"pink":           {0xff, 0xc0, 0xcb, 0xff},
	"hotpink":        {0xff, 0x69, 0xb4, 0xff},
	"deeppink":       {0xff, 0x14, 0x93, 0xff},
	"orange":         {0xff, 0xa5, 0x00, 0xff},
	"darkorange":     {0xff, 0x8c, 0x00, 0xff},
	"orangered":      {0xff, 0x45, 0x00, 0xff},
	"tomato":         {0xff, 0x63, 0x47, 0xff},
	"coral":          {0xff, 0x7f, 0x50, 0xff},
	"gold":           {0xff, 0xd7, 0x00, 0xff},
	"yellow":         {0xff, 0xff, 0x00, 0xff},
	"khaki":          {0xf0, 0xe6, 0x8c, 0xff},
	"brown":          {0xa5, 0x2a, 0x2a, 0xff},
	"chocolate":      {0xd2, 0x69, 0x1e, 0xff},
	"sienna":         {0xa0, 0x52, 0x2d, 0xff},
	"tan":            {0xd2, 0xb4, 0x8c, 0xff},
	"green":          {0x00, 0xff, 0x00, 0xff},
	"darkgreen":      {0x00, 0x64, 0x00, 0xff},
	"forestgreen":    {0x22, 0x8b, 0x22, 0xff},
	"seagreen":       {0x2e, 0x8b, 0x57, 0xff},
	"limegreen":      {0x32, 0xcd, 0x32, 0xff},
	"olivedrab":      {0x6b, 0x8e, 0x23, 0xff},
	"cyan":           {0x00, 0xff, 0xff, 0xff},
	"darkcyan":       {0x00, 0x8b, 0x8b, 0xff},
	"turquoise":      {0x40, 0xe0, 0xd0, 0xff},
	"teal":           {0x00, 0x80, 0x80, 0xff},
	"blue":           {0x00, 0x00, 0xff, 0xff},
	"darkblue":       {0x00, 0x00, 0x8b, 0xff},
	"navy":           {0x00, 0x00, 0x80, 0xff},
	"navyblue":       {0x00, 0x00, 0x80, 0xff},
	"midnightblue":   {0x19, 0x19, 0x70, 0xff},
	"royalblue":      {0x41, 0x69, 0xe1, 0xff},
	"steelblue":      {0x46, 0x82, 0xb4, 0xff},
	"skyblue":        {0x87, 0xce, 0xeb, 0xff},
	"lightblue":      {0xad, 0xd8, 0xe6, 0xff},
	"dodgerblue":     {0x1e, 0x90, 0xff, 0xff},
	"cornflowerblue": {0x64, 0x95, 0xed, 0xff},
	"magenta":        {0xff, 0x00, 0xff, 0xff},
	"darkmagenta":    {0x8b, 0x00, 0x8b, 0xff},
	"purple":         {0xa0, 0x20, 0xf0, 0xff},
	"violet":         {0xee, 0x82, 0xee, 0xff},
	"orchid":         {0xda, 0x70, 0xd6, 0xff},
	"indigo":         {0x4b, 0x00, 0x82, 0xff},
	"lavender":       {0xe6, 0xe6, 0xfa, 0xff},
}
