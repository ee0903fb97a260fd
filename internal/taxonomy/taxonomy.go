// Package taxonomy holds the keyword tables that decide whether a feed item
// is Web3-security related and how it is classified. The tables are data:
// classification logic lives in the classify package.
package taxonomy

// Category is the top-level classification of a security item.
type Category string

const (
	CategoryBlockchainAttack        Category = "blockchain_attack"
	CategoryVulnerabilityDisclosure Category = "vulnerability_disclosure"
	CategoryExploit                 Category = "exploit"
	CategorySmartContractBug        Category = "smart_contract_bug"
)

// Subcategory is a finer-grained tag, orthogonal to Category.
type Subcategory string

const (
	SubcategoryBridgeHack        Subcategory = "bridge_hack"
	SubcategoryWalletHack        Subcategory = "wallet_hack"
	SubcategoryStolenFunds       Subcategory = "stolen_funds"
	SubcategoryPublicChainAttack Subcategory = "public_chain_attack"
	SubcategoryCodeBug           Subcategory = "code_bug"
)

// CategoryRule matches when any keyword appears in the item text.
type CategoryRule struct {
	Category Category
	Keywords []string
}

// SubcategoryRule matches when any keyword appears in the item text. When
// Confirm is non-empty, at least one confirmation word must also appear;
// this guards broad keywords ("hacked", "breached") against false positives.
type SubcategoryRule struct {
	Subcategory Subcategory
	Keywords    []string
	Confirm     []string
}

var blockchainAttackKeywords = []string{
	// consensus / network level attacks
	"blockchain attack", "区块链攻击", "51% attack", "51%攻击",
	"double spending", "双花", "sybil attack", "sybil攻击",
	"eclipse attack", "eclipse攻击", "ddos attack", "ddos攻击",
	"network attack", "网络攻击", "transaction attack", "交易攻击",
	"consensus attack", "共识攻击", "mining attack", "挖矿攻击",
	"hash rate", "nonce attack", "fork attack", "分叉攻击",
	"selfish mining", "自私挖矿", "transaction malleability", "交易延展性",
	"replay attack", "重放攻击", "finney attack", "griefing attack",

	// wallets
	"wallet hack", "钱包被黑", "wallet compromise", "钱包被入侵",
	"wallet vulnerability", "钱包漏洞", "wallet breach", "钱包泄露",
	"private key leak", "私钥泄露", "seed phrase stolen", "种子短语被盗",
	"hardware wallet vulnerability", "硬件钱包漏洞", "ledger vulnerability", "ledger漏洞",
	"metamask vulnerability", "metamask漏洞", "metamask hack", "metamask被黑",
	"trust wallet hack", "trust wallet被黑", "wallet draining", "钱包资金被清空",
	"mnemonic leaked", "助记词泄露", "key extraction", "密钥提取",

	// public chain incidents
	"ethereum attack", "以太坊攻击", "ethereum hack", "以太坊被黑",
	"ethereum vulnerability", "以太坊漏洞", "ethereum bug",
	"bitcoin attack", "比特币攻击", "bitcoin vulnerability", "比特币漏洞",
	"bsc attack", "bsc被黑", "binance chain vulnerability", "币安智能链漏洞",
	"polygon attack", "polygon被黑", "polygon vulnerability", "polygon漏洞",
	"solana attack", "solana被黑", "solana vulnerability", "solana漏洞",
	"avalanche vulnerability", "avalanche漏洞", "avalanche attack", "avalanche被黑",
	"optimism vulnerability", "optimism漏洞", "arbitrum vulnerability", "arbitrum漏洞",
	"zksync vulnerability", "zksync漏洞", "starknet vulnerability", "starknet漏洞",
	"base network vulnerability", "base chain漏洞",

	// theft / loss incidents
	"funds stolen", "资金被盗", "stolen funds", "被盗资金",
	"millions stolen", "百万资金被盗", "millions lost", "百万资金丢失",
	"bridge hack", "跨链桥接被黑", "bridge exploit", "跨链桥接被利用",
	"bridge vulnerability", "跨链桥接漏洞", "cross chain vulnerability", "跨链漏洞",
	"protocol hack", "协议被黑", "protocol exploit", "协议被利用",
	"exchange hack", "交易所被黑", "exchange vulnerability", "交易所漏洞",
	"dex vulnerability", "dex漏洞", "dex hack", "dex被黑",
	"liquidity pool hack", "流动性池被黑", "flash loan attack", "闪电贷攻击",
	"token theft", "代币被盗", "theft", "盗窃",
	"hacked", "被黑", "compromised", "被入侵", "breached", "被突破",
	"stolen", "被盗",

	// code level incidents
	"contract audit failure", "合约审计失败", "code vulnerability", "代码漏洞",
	"zero knowledge bug", "零知识证明漏洞", "cryptographic flaw", "密码学缺陷",
	"implementation bug", "实现漏洞", "logic error", "逻辑错误",
	"upgrade vulnerability", "升级漏洞", "proxy vulnerability", "代理漏洞",
}

var vulnerabilityDisclosureKeywords = []string{
	"vulnerability disclosure", "漏洞披露", "cve disclosure", "cve",
	"security advisory", "安全公告", "security alert", "安全警报",
	"vulnerability report", "漏洞报告", "disclosed vulnerability", "披露漏洞",
	"bug bounty", "bug报告", "responsible disclosure", "负责任披露",
	"vulnerability fix", "漏洞修复", "patch", "补丁", "security patch", "安全补丁",
	"fixed vulnerability", "修复漏洞", "issue fixed", "问题修复",
	"vulnerability announcement", "漏洞公告", "0-day", "zero-day", "zero day",
}

var exploitKeywords = []string{
	"exploit", "漏洞利用", "exploit code", "利用代码", "poc", "proof of concept",
	"working exploit", "可用利用", "public exploit", "公开利用",
	"metasploit", "exploit kit", "attack tool", "攻击工具",
	"malicious code", "恶意代码", "backdoor", "后门", "trojan", "木马",
	"malware", "恶意软件", "ransomware", "勒索软件", "worm", "蠕虫",
}

var smartContractKeywords = []string{
	"smart contract vulnerability", "智能合约漏洞", "contract bug", "合约漏洞",
	"reentrancy", "重入攻击", "overflow", "溢出", "underflow", "下溢",
	"access control", "访问控制", "authorization", "授权问题",
	"privilege escalation", "权限提升", "logic bug", "逻辑漏洞",
	"unchecked external call", "未检查外部调用", "front-running", "抢跑",
	"gas limit dependency", "timestamp dependency", "delegatecall", "委托调用",
	"contract audit", "合约审计", "solidity bug", "solidity漏洞",
	"smart contract security", "智能合约安全", "evm bug", "contract flaw",
}

// Categories in priority order: the first rule whose keywords match wins.
var Categories = []CategoryRule{
	{CategoryBlockchainAttack, blockchainAttackKeywords},
	{CategoryVulnerabilityDisclosure, vulnerabilityDisclosureKeywords},
	{CategoryExploit, exploitKeywords},
	{CategorySmartContractBug, smartContractKeywords},
}

var bridgeHackKeywords = []string{
	"bridge hack", "bridge exploit", "bridge vulnerability",
	"cross chain vulnerability", "crosschain hack",
	"跨链桥接", "wormhole", "nomad", "ronin", "poly network",
	"bridge security", "桥接漏洞",
}

var walletHackKeywords = []string{
	"wallet hack", "钱包被黑", "wallet compromise", "钱包被入侵",
	"wallet vulnerability", "钱包漏洞", "wallet breach", "钱包泄露",
	"private key leak", "私钥泄露", "seed phrase stolen", "种子短语被盗",
	"hardware wallet", "硬件钱包", "metamask", "trust wallet", "ledger",
	"mnemonic leaked", "助记词泄露", "key extraction", "密钥提取",
}

var stolenFundsKeywords = []string{
	"funds stolen", "stolen funds", "millions stolen", "millions lost",
	"funds lost", "liquidity pool hack", "flash loan attack", "token theft",
	"theft", "hacked", "compromised", "breached", "stolen",
	"资金被盗", "百万", "被黑", "被入侵", "被突破", "被盗", "漏洞",
}

// stolenFundsConfirm guards the broad words above: a stolen-funds tag needs
// evidence of an actual loss, not just the word "vulnerability" in passing.
var stolenFundsConfirm = []string{
	"hack", "stolen", "lost", "被黑", "被盗", "丢失",
}

var publicChainKeywords = []string{
	"ethereum", "bitcoin", "bsc", "binance smart chain",
	"polygon", "solana", "avalanche", "arbitrum", "optimism",
	"zksync", "starknet", "base network", "base chain",
	"layer 2", "l2", "以太坊", "比特币", "币安",
}

var codeBugKeywords = []string{
	"code vulnerability", "implementation bug", "logic error",
	"zero knowledge bug", "cryptographic flaw", "upgrade vulnerability",
	"proxy vulnerability", "contract audit", "代码漏洞", "实现漏洞",
	"逻辑错误", "密码学", "升级",
}

// Subcategories in priority order; the first matching rule wins.
var Subcategories = []SubcategoryRule{
	{Subcategory: SubcategoryBridgeHack, Keywords: bridgeHackKeywords},
	{Subcategory: SubcategoryWalletHack, Keywords: walletHackKeywords},
	{Subcategory: SubcategoryStolenFunds, Keywords: stolenFundsKeywords, Confirm: stolenFundsConfirm},
	{Subcategory: SubcategoryPublicChainAttack, Keywords: publicChainKeywords},
	{Subcategory: SubcategoryCodeBug, Keywords: codeBugKeywords},
}

// ValidCategory reports whether s names a known category.
func ValidCategory(s string) bool {
	switch Category(s) {
	case CategoryBlockchainAttack, CategoryVulnerabilityDisclosure, CategoryExploit, CategorySmartContractBug:
		return true
	}
	return false
}

// Label returns a display label for a category.
func (c Category) Label() string {
	switch c {
	case CategoryBlockchainAttack:
		return "🔴 区块链攻击"
	case CategoryVulnerabilityDisclosure:
		return "⚠️ 漏洞披露"
	case CategoryExploit:
		return "💥 漏洞利用"
	case CategorySmartContractBug:
		return "🐛 智能合约漏洞"
	}
	return string(c)
}

// Label returns a display label for a subcategory.
func (s Subcategory) Label() string {
	switch s {
	case SubcategoryBridgeHack:
		return "🌉 Bridge Hack"
	case SubcategoryWalletHack:
		return "💼 Wallet Hack"
	case SubcategoryStolenFunds:
		return "💰 Stolen Funds"
	case SubcategoryPublicChainAttack:
		return "⛓️ Public Chain Attack"
	case SubcategoryCodeBug:
		return "🐛 Code Bug"
	}
	return string(s)
}
