package classify

import (
	"testing"

	"w3watch/internal/taxonomy"
)

func TestCategorizeMatchesKeywordAnywhere(t *testing.T) {
	text := CombinedText("Weekly update", "the team published a security advisory for the router firmware", "")
	category, ok := Categorize(text)
	if !ok {
		t.Fatalf("expected a category match")
	}
	if category != taxonomy.CategoryVulnerabilityDisclosure {
		t.Errorf("got %q, want %q", category, taxonomy.CategoryVulnerabilityDisclosure)
	}
}

func TestCategorizePriorityOrder(t *testing.T) {
	// Text matching both blockchain_attack and exploit keywords must take
	// the higher-priority blockchain_attack.
	text := CombinedText("Bridge hack with working exploit released", "", "")
	category, ok := Categorize(text)
	if !ok {
		t.Fatalf("expected a category match")
	}
	if category != taxonomy.CategoryBlockchainAttack {
		t.Errorf("got %q, want %q", category, taxonomy.CategoryBlockchainAttack)
	}
}

func TestCategorizeChineseKeywords(t *testing.T) {
	text := CombinedText("跨链桥接被黑，损失惨重", "", "")
	category, ok := Categorize(text)
	if !ok {
		t.Fatalf("expected a category match for Chinese keywords")
	}
	if category != taxonomy.CategoryBlockchainAttack {
		t.Errorf("got %q, want %q", category, taxonomy.CategoryBlockchainAttack)
	}
}

func TestCategorizeNoMatch(t *testing.T) {
	text := CombinedText("Market roundup", "prices moved sideways this week", "")
	if category, ok := Categorize(text); ok {
		t.Errorf("expected no match, got %q", category)
	}
}

func TestCategorizeEmptyText(t *testing.T) {
	if category, ok := Categorize(CombinedText("", "", "")); ok {
		t.Errorf("expected no match for empty text, got %q", category)
	}
}

func TestCombinedTextUsesSnippetWhenContentEmpty(t *testing.T) {
	text := CombinedText("Title", "", "a reentrancy bug was found")
	category, ok := Categorize(text)
	if !ok {
		t.Fatalf("expected snippet to be classified")
	}
	if category != taxonomy.CategorySmartContractBug {
		t.Errorf("got %q, want %q", category, taxonomy.CategorySmartContractBug)
	}
}

func TestSubcategorizeStolenFundsNeedsConfirmation(t *testing.T) {
	// "漏洞" alone is a stolen_funds keyword but carries no loss evidence,
	// so the confirmation set must reject it and fall through.
	text := CombinedText("以太坊漏洞分析", "", "")
	sub, ok := Subcategorize(text)
	if ok && sub == taxonomy.SubcategoryStolenFunds {
		t.Errorf("stolen_funds assigned without a confirmation word")
	}

	text = CombinedText("以太坊漏洞导致资金被盗", "", "")
	sub, ok = Subcategorize(text)
	if !ok || sub != taxonomy.SubcategoryStolenFunds {
		t.Errorf("got %q (ok=%v), want stolen_funds with confirmation present", sub, ok)
	}
}

func TestSubcategorizeBridgeHackPriority(t *testing.T) {
	text := CombinedText("Wormhole bridge exploit drains wallet funds", "", "")
	sub, ok := Subcategorize(text)
	if !ok {
		t.Fatalf("expected a subcategory match")
	}
	if sub != taxonomy.SubcategoryBridgeHack {
		t.Errorf("got %q, want %q", sub, taxonomy.SubcategoryBridgeHack)
	}
}

func TestSubcategorizeNoMatch(t *testing.T) {
	if sub, ok := Subcategorize("completely unrelated text"); ok {
		t.Errorf("expected no subcategory, got %q", sub)
	}
}
