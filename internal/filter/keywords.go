// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package filter

// DefaultKeywords returns the built-in exclusion lists aimed at keeping
// scientific concepts from zh.wikipedia link text.
func DefaultKeywords() KeywordSet {
	var kws []string
	for _, group := range [][]string{
		namespaceKeywords,
		separatorKeywords,
		placeKeywords,
		domainKeywords,
		militaryKeywords,
		commerceKeywords,
		noiseKeywords,
	} {
		kws = append(kws, group...)
	}
	return KeywordSet{
		Keywords:        kws,
		CaseInsensitive: append([]string(nil), corporateSuffixes...),
	}
}

// MediaWiki namespaces and list/meta pages.
var namespaceKeywords = []string{
	"Category:", "分类:", "File:", "文件:", "Image:", "图像:", "Media:",
	"Template:", "模板:", "Help:", "帮助:", "Portal:", "主题:",
	"Wikipedia:", "维基百科:", "User:", "用户:", "Draft:", "草稿:",
	"Special:", "特殊:", "Talk:", "讨论:", "列表", "List of",
}

var separatorKeywords = []string{"|", ":", ".", "·"}

// Dates, places, non-commercial organisations and people.
var placeKeywords = []string{
	"年", "月", "日",
	"国家", "省", "市", "县", "镇", "村", "地区", "地理",
	"大学", "政府", "组织", "协会", "学会",
	"人物", "历史", "History", "帝国",
}

var domainKeywords = []string{
	"文化", "艺术", "音乐", "电影", "文学", "宗教", "哲学", "政治", "经济", "法律",
	"运动",
}

var militaryKeywords = []string{
	"武器", "枪械", "火炮", "炮", "导弹", "炸弹", "弹药", "爆炸物",
	"枪", "步枪", "手枪", "机枪", "冲锋枪", "霰弹枪",
	"榴弹炮", "迫击炮", "手榴弹", "地雷", "鱼雷",
	"剑", "矛",
	"坦克", "战舰", "军舰", "航空母舰", "潜艇", "战斗机", "轰炸机", "无人机", "戰車",
	"军事", "战争", "战役", "军队", "海军", "空军", "陆军", "瓜分", "出版社", "中国", "国防",
	"军工", "军火", "中國", "工业",
}

var commerceKeywords = []string{
	"公司", "企业", "集团", "控股",
	"银行", "保险", "证券", "投资", "金融",
	"航空",
	"软件", "网络", "电子",
	"汽车",
	"制药", "药业",
	"能源", "石油",
	"传媒", "娱乐", "影业", "游戏",
	"地产", "房产",
	"零售", "百货", "超市",
	"国际", "环球",
	"有限", "股份", "株式会社",
}

// Interwiki language prefixes and other recurring noise.
var noiseKeywords = []string{
	"en:", "de:", "fr:", "ja:", "zh:",
	"LGBT",
}

// corporateSuffixes match without regard to case.
var corporateSuffixes = []string{
	"Inc.", "Ltd.", "Corp.", "LLC", "GmbH", "SA", "PLC", "Co.",
}
