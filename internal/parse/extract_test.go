package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractor_Extract(t *testing.T) {
	e := NewExtractor(DefaultVocabulary())

	tests := []struct {
		name string
		text string
		want []Line
	}{
		{
			name: "single item with number word",
			text: "好的，你點的是一杯美式，價格是50元。",
			want: []Line{{ItemName: "美式", Quantity: 1}},
		},
		{
			name: "two items joined by conjunction",
			text: "好的，你點的是三杯美式和一片巧克力厚片",
			want: []Line{
				{ItemName: "美式", Quantity: 3},
				{ItemName: "巧克力厚片", Quantity: 1},
			},
		},
		{
			name: "ascii digit quantity",
			text: "您要2杯拿鐵嗎？",
			want: []Line{{ItemName: "拿鐵", Quantity: 2}},
		},
		{
			name: "multi digit quantity",
			text: "好的，12杯美式。",
			want: []Line{{ItemName: "美式", Quantity: 12}},
		},
		{
			name: "item name with embedded space",
			text: "一份 off menu special 好的",
			want: []Line{{ItemName: "off menu special 好的", Quantity: 1}},
		},
		{
			name: "whitespace between quantity and counter",
			text: "三 杯 美式",
			want: []Line{{ItemName: "美式", Quantity: 3}},
		},
		{
			name: "adjacent patterns without conjunction",
			text: "兩杯拿鐵一片厚片",
			want: []Line{
				{ItemName: "拿鐵", Quantity: 2},
				{ItemName: "厚片", Quantity: 1},
			},
		},
		{
			name: "counter word inside item name survives",
			text: "一片巧克力厚片",
			want: []Line{{ItemName: "巧克力厚片", Quantity: 1}},
		},
		{
			name: "number word inside item name survives",
			text: "一份九層塔蛋餅",
			want: []Line{{ItemName: "九層塔蛋餅", Quantity: 1}},
		},
		{
			name: "unknown quantity word yields zero",
			text: "0杯美式",
			want: []Line{{ItemName: "美式", Quantity: 0}},
		},
		{
			name: "no pattern",
			text: "請問還需要什麼嗎？",
			want: nil,
		},
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "counter without item name is skipped",
			text: "我要三杯，謝謝",
			want: nil,
		},
		{
			name: "punctuation terminates item name",
			text: "好的，兩杯美式，馬上來",
			want: []Line{{ItemName: "美式", Quantity: 2}},
		},
		{
			name: "three items",
			text: "你點的是一杯美式跟兩杯拿鐵和三份鬆餅",
			want: []Line{
				{ItemName: "美式", Quantity: 1},
				{ItemName: "拿鐵", Quantity: 2},
				{ItemName: "鬆餅", Quantity: 3},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestExtractor_Extract_order(t *testing.T) {
	e := NewExtractor(DefaultVocabulary())

	got := e.Extract("一杯A和二杯B和三杯C")
	assert.Equal(t, []Line{
		{ItemName: "A", Quantity: 1},
		{ItemName: "B", Quantity: 2},
		{ItemName: "C", Quantity: 3},
	}, got, "pairs must come back in left-to-right order")
}
