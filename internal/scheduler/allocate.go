package scheduler

import "github.com/shopspring/decimal"

// splitProportional 按权重拆分 total，最后一个正权重位置承担除法误差，保证总和精确等于 total
func splitProportional(total decimal.Decimal, weights []float64) []decimal.Decimal {
	alloc, _ := waterFill(total, weights, nil)
	return alloc
}

// allocateCents 按权重拆分金额并取整到分：除最后一周外向下截断，余数全部归最后一周
func allocateCents(total decimal.Decimal, weights []float64) []decimal.Decimal {
	return reconcileCents(splitProportional(total, weights), total)
}

// reconcileCents 把 values 截断到分，与 total 的差额放到最后一项；total 本身必须是整分
func reconcileCents(values []decimal.Decimal, total decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	if len(values) == 0 {
		return out
	}
	sum := decimal.Zero
	for i := 0; i < len(values)-1; i++ {
		out[i] = values[i].Truncate(2)
		sum = sum.Add(out[i])
	}
	out[len(values)-1] = total.Sub(sum)
	return out
}

// settleCents 把 values 截断到分，总额四舍五入后的零头放到最后一个还放得下的周；
// 没有上限或所有周都放不下时放到最后一周
func settleCents(values, ceilings []decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	if len(values) == 0 {
		return out
	}
	placed := decimal.Zero
	for i, v := range values {
		out[i] = v.Truncate(2)
		placed = placed.Add(out[i])
	}
	dust := sumDecimals(values).Round(2).Sub(placed)
	if !dust.IsPositive() {
		return out
	}

	target := len(out) - 1
	if ceilings != nil {
		for i := len(out) - 1; i >= 0; i-- {
			if ceilings[i].Sub(out[i]).GreaterThanOrEqual(dust) {
				target = i
				break
			}
		}
	}
	out[target] = out[target].Add(dust)
	return out
}

// waterFill 按权重分配 amount。caps 为 nil 时不设上限，否则第 i 项最多分到 caps[i]；
// 放不下的部分作为 leftover 返回，不会溢出到某一项上
func waterFill(amount decimal.Decimal, weights []float64, caps []decimal.Decimal) ([]decimal.Decimal, decimal.Decimal) {
	alloc := zeros(len(weights))
	remaining := amount
	if !remaining.IsPositive() {
		return alloc, decimal.Zero
	}

	var active []int
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if caps != nil && !caps[i].IsPositive() {
			continue
		}
		active = append(active, i)
	}

	for len(active) > 0 && remaining.IsPositive() {
		sumW := decimal.Zero
		for _, i := range active {
			sumW = sumW.Add(decimal.NewFromFloat(weights[i]))
		}
		if !sumW.IsPositive() {
			break
		}

		// 先把按比例会超过上限的项填满，再对剩余项重新分配
		if caps != nil {
			snapshot := remaining
			var open []int
			for _, i := range active {
				share := snapshot.Mul(decimal.NewFromFloat(weights[i])).Div(sumW)
				room := caps[i].Sub(alloc[i])
				if share.GreaterThanOrEqual(room) {
					alloc[i] = caps[i]
					remaining = remaining.Sub(room)
					continue
				}
				open = append(open, i)
			}
			if len(open) < len(active) {
				active = open
				continue
			}
		}

		distributed := decimal.Zero
		last := active[len(active)-1]
		for _, i := range active[:len(active)-1] {
			share := remaining.Mul(decimal.NewFromFloat(weights[i])).Div(sumW)
			alloc[i] = alloc[i].Add(share)
			distributed = distributed.Add(share)
		}
		alloc[last] = alloc[last].Add(remaining.Sub(distributed))
		remaining = decimal.Zero
	}

	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return alloc, remaining
}

func zeros(n int) []decimal.Decimal {
	out := make([]decimal.Decimal, n)
	for i := range out {
		out[i] = decimal.Zero
	}
	return out
}

func sumDecimals(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum
}
